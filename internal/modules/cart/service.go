package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/catalog"
)

// Service is the session-scoped cart accumulator.
type Service interface {
	View(session string) View
	Items(session string) []LineItem
	AddItem(ctx context.Context, session string, item LineItem) (LineItem, error)
	AddPack(ctx context.Context, session, packID string, quantity int) (LineItem, error)
	AddElectronic(ctx context.Context, session, electronicID string, quantity int) (LineItem, error)
	AddSupply(ctx context.Context, session, packID, supplyName string, quantity int) (LineItem, error)
	UpdateQuantity(session, id string, quantity int) (LineItem, error)
	Decrement(session, id string) error
	RemoveItem(session, id string) error
	Clear(session string)
}

type service struct {
	store   *Store
	catalog catalog.Service
}

func NewService(store *Store, catalogService catalog.Service) Service {
	return &service{store: store, catalog: catalogService}
}

func (s *service) View(session string) View { return s.store.Get(session).View() }

func (s *service) Items(session string) []LineItem { return s.store.Get(session).Items() }

// AddItem resolves item against the catalog by kind and reference. Names and prices sent by the
// client are ignored.
func (s *service) AddItem(ctx context.Context, session string, item LineItem) (LineItem, error) {
	switch item.Kind {
	case KindPack:
		return s.AddPack(ctx, session, item.ID, item.Quantity)
	case KindElectronic:
		return s.AddElectronic(ctx, session, item.ID, item.Quantity)
	case KindSupply:
		if item.PackID == "" {
			return LineItem{}, fmt.Errorf("%w: a supply needs pack_id", ErrInvalidItem)
		}
		return s.AddSupply(ctx, session, item.PackID, item.Name, item.Quantity)
	}
	return LineItem{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, item.Kind)
}

// AddPack adds a catalog pack; the line carries explicit school and grade taken from the catalog.
func (s *service) AddPack(ctx context.Context, session, packID string, quantity int) (LineItem, error) {
	p, err := s.catalog.GetPack(ctx, packID)
	if err != nil {
		return LineItem{}, fmt.Errorf("pack %s: %w", packID, err)
	}
	return s.store.Get(session).AddItem(LineItem{
		ID:        p.ID.String(),
		Kind:      KindPack,
		Name:      fmt.Sprintf("Pack - %s - %s", p.Grade, p.SchoolName),
		Brand:     "Pack",
		UnitPrice: p.Price,
		Quantity:  quantity,
		School:    p.SchoolName,
		Grade:     p.Grade,
		Supplies:  p.Supplies,
	})
}

func (s *service) AddElectronic(ctx context.Context, session, electronicID string, quantity int) (LineItem, error) {
	e, err := s.catalog.GetElectronic(ctx, electronicID)
	if err != nil {
		return LineItem{}, fmt.Errorf("electronic %s: %w", electronicID, err)
	}
	return s.store.Get(session).AddItem(LineItem{
		ID:        e.ID.String(),
		Kind:      KindElectronic,
		Name:      e.Name,
		Brand:     e.Brand,
		UnitPrice: e.Price,
		Quantity:  quantity,
		Category:  e.Category,
	})
}

// AddSupply adds one supply of a catalog pack at the pack's listed unit price.
func (s *service) AddSupply(ctx context.Context, session, packID, supplyName string, quantity int) (LineItem, error) {
	p, err := s.catalog.GetPack(ctx, packID)
	if err != nil {
		return LineItem{}, fmt.Errorf("pack %s: %w", packID, err)
	}
	for _, sup := range p.Supplies {
		if !strings.EqualFold(sup.Name, strings.TrimSpace(supplyName)) {
			continue
		}
		return s.store.Get(session).AddItem(LineItem{
			ID:        p.ID.String() + "/" + sup.Name,
			PackID:    p.ID.String(),
			Kind:      KindSupply,
			Name:      sup.Name,
			Brand:     sup.Brand,
			UnitPrice: sup.UnitPrice,
			Quantity:  quantity,
			School:    p.SchoolName,
			Grade:     p.Grade,
		})
	}
	return LineItem{}, fmt.Errorf("supply %q in pack %s: %w", supplyName, packID, catalog.ErrNotFound)
}

func (s *service) UpdateQuantity(session, id string, quantity int) (LineItem, error) {
	return s.store.Get(session).UpdateQuantity(id, quantity)
}

func (s *service) Decrement(session, id string) error {
	return s.store.Get(session).Decrement(id)
}

func (s *service) RemoveItem(session, id string) error {
	return s.store.Get(session).RemoveItem(id)
}

func (s *service) Clear(session string) { s.store.Clear(session) }
