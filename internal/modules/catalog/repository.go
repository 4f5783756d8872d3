package catalog

import "context"

// Repository defines read access to the storefront catalog.
type Repository interface {
	ListSchools(ctx context.Context, activeOnly bool) ([]*School, error)
	GetSchool(ctx context.Context, id string) (*School, error)
	ListPacks(ctx context.Context, schoolID, grade string) ([]*Pack, error)
	GetPack(ctx context.Context, id string) (*Pack, error)
	ListElectronics(ctx context.Context, category string) ([]*Electronic, error)
	GetElectronic(ctx context.Context, id string) (*Electronic, error)
}
