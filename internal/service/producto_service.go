package service

import (
	"context"
	"encoding/json"
	"time"

	"tiendaapi/internal/dto"
	"tiendaapi/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProductoService is the read side of the catalog.
type ProductoService interface {
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
	rdb  *redis.Client
	ttl  time.Duration
}

// NewProductoService caches lookups in Redis for ttl. rdb may be nil, which
// disables the cache.
func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client, ttl time.Duration) ProductoService {
	return &productoService{repo: repo, rdb: rdb, ttl: ttl}
}

func productoCacheKey(id uuid.UUID) string { return "producto:" + id.String() }

// ObtenerPorID serves from cache first. Stock in a cached entry may lag by at
// most ttl; reservations never read through this path.
func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	key := productoCacheKey(id)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var resp dto.ProductoResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto", id)
	}
	resp := &dto.ProductoResponse{
		ID:          p.ID.String(),
		TiendaID:    p.TiendaID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		SKU:         p.SKU,
		Precio:      p.Precio,
		Stock:       p.Stock,
		Activo:      p.Activo,
	}

	// best effort
	if s.rdb != nil && s.ttl > 0 {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, key, b, s.ttl).Err()
		}
	}
	return resp, nil
}
