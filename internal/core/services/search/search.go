// Package search implements the archive query side of POST /search: the
// DSL grammar itself is an external/pluggable concern (§1 Non-goals), so
// queries are evaluated as expr-lang boolean expressions against each
// domain.Flag record, followed by in-memory sort and paging.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
)

// Service evaluates search requests against the Flag Store's full dataset.
type Service struct {
	flags ports.FlagStore
}

// New builds a Service.
func New(flags ports.FlagStore) *Service {
	return &Service{flags: flags}
}

// flagEnv is the expr evaluation environment: one row of the Flag Store.
// Queries refer to its fields by their Go names (Value, Status, Tick, ...).
type flagEnv struct {
	Value     string
	Exploit   string
	Player    string
	Target    string
	Status    string
	Tick      int64
	Response  string
	Timestamp time.Time
}

func toEnv(f domain.Flag) flagEnv {
	return flagEnv{
		Value: f.Value, Exploit: f.Exploit, Player: f.Player, Target: f.Target,
		Status: string(f.Status), Tick: f.Tick, Response: f.Response, Timestamp: f.Timestamp,
	}
}

// Search implements POST /search (§6, §4.7's AllFlags backing read).
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	start := time.Now()

	show := req.Show
	if show <= 0 {
		show = domain.DefaultSearchShow
	}
	if show > domain.MaxSearchShow {
		show = domain.MaxSearchShow
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	all, err := s.flags.AllFlags(ctx)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("search: %w", err)
	}

	var program *vm.Program
	if strings.TrimSpace(req.Query) != "" {
		program, err = expr.Compile(req.Query, expr.Env(flagEnv{}), expr.AsBool())
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("%w: invalid query: %v", domain.ErrValidation, err)
		}
	}

	matched := make([]domain.Flag, 0, len(all))
	for _, f := range all {
		if req.HideFlags == "on" && f.Status != domain.StatusAccepted {
			continue
		}
		if program == nil {
			matched = append(matched, f)
			continue
		}
		out, err := expr.Run(program, toEnv(f))
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("%w: query evaluation failed: %v", domain.ErrValidation, err)
		}
		if ok, _ := out.(bool); ok {
			matched = append(matched, f)
		}
	}

	applySort(matched, req.Sort)

	total := int64(len(matched))
	offset := (page - 1) * show
	end := offset + show
	if offset > len(matched) {
		offset = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return domain.SearchResult{
		Results:   matched[offset:end],
		Total:     total,
		Page:      page,
		Show:      show,
		ElapsedMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

func applySort(flags []domain.Flag, fields []domain.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(flags, func(i, j int) bool {
		for _, sf := range fields {
			cmp := compareField(flags[i], flags[j], sf.Field)
			if cmp == 0 {
				continue
			}
			if sf.Direction == "desc" {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareField(a, b domain.Flag, field string) int {
	switch field {
	case "value":
		return strings.Compare(a.Value, b.Value)
	case "exploit":
		return strings.Compare(a.Exploit, b.Exploit)
	case "player":
		return strings.Compare(a.Player, b.Player)
	case "target":
		return strings.Compare(a.Target, b.Target)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "tick":
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
