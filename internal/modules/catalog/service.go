package catalog

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Service defines catalog read operations.
type Service interface {
	ListSchools(ctx context.Context) ([]*School, error)
	GetSchool(ctx context.Context, id string) (*School, error)
	ListPacks(ctx context.Context, schoolID, grade string) ([]*Pack, error)
	GetPack(ctx context.Context, id string) (*Pack, error)
	ListElectronics(ctx context.Context, category string) ([]*Electronic, error)
	GetElectronic(ctx context.Context, id string) (*Electronic, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListSchools(ctx context.Context) ([]*School, error) {
	return s.repo.ListSchools(ctx, true)
}

func (s *service) GetSchool(ctx context.Context, id string) (*School, error) {
	return s.repo.GetSchool(ctx, id)
}

func (s *service) ListPacks(ctx context.Context, schoolID, grade string) ([]*Pack, error) {
	packs, err := s.repo.ListPacks(ctx, schoolID, grade)
	if err != nil {
		return nil, err
	}
	SortPacks(packs)
	return packs, nil
}

func (s *service) GetPack(ctx context.Context, id string) (*Pack, error) {
	return s.repo.GetPack(ctx, id)
}

func (s *service) ListElectronics(ctx context.Context, category string) ([]*Electronic, error) {
	return s.repo.ListElectronics(ctx, category)
}

func (s *service) GetElectronic(ctx context.Context, id string) (*Electronic, error) {
	return s.repo.GetElectronic(ctx, id)
}

var gradeNumber = regexp.MustCompile(`\d+`)

// gradeRank orders kindergarten first, then numbered grades, then anything unrecognised.
func gradeRank(grade string) int {
	g := strings.ToUpper(strings.TrimSpace(grade))
	if g == "K" || strings.HasPrefix(g, "K-") || strings.HasPrefix(g, "KINDER") || strings.HasPrefix(g, "PRE") {
		return 0
	}
	if m := gradeNumber.FindString(g); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 1000
}

// SortPacks orders packs by school name, then grade (K, 1st, 2nd ... 12th), then pack name.
func SortPacks(packs []*Pack) {
	sort.SliceStable(packs, func(i, j int) bool {
		a, b := packs[i], packs[j]
		if a.SchoolName != b.SchoolName {
			return a.SchoolName < b.SchoolName
		}
		if ra, rb := gradeRank(a.Grade), gradeRank(b.Grade); ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})
}
