// Package pipeline implements the in-memory listing transformation shared by
// every view that displays concursos: status partition, custom-filter matching
// and sorting.
package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"concursos/models"
)

// Status selects one side of the deadline partition.
type Status string

const (
	StatusAtivos    Status = "ativos"
	StatusExpirados Status = "expirados"
)

// SortField names a sortable projection of a concurso.
type SortField string

const (
	SortPrazo        SortField = "prazo"
	SortPublicacao   SortField = "publicacao"
	SortProcedimento SortField = "procedimento"
)

// SortKey is a compound (field, direction) sort selector.
type SortKey struct {
	Field SortField
	Desc  bool
}

// dateOnly truncates t to midnight local time. Every "today" comparison in the
// application goes through this single truncation policy.
func dateOnly(t time.Time) time.Time {
	t = t.Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// IsAtivo reports whether a concurso is active: a non-null deadline whose date
// has not passed. A concurso without a deadline is neither active nor expired.
func IsAtivo(c models.Concurso, now time.Time) bool {
	if c.PrazoPropostas == nil {
		return false
	}
	return !dateOnly(*c.PrazoPropostas).Before(dateOnly(now))
}

// IsExpirado reports whether a concurso has a deadline whose date has passed.
func IsExpirado(c models.Concurso, now time.Time) bool {
	if c.PrazoPropostas == nil {
		return false
	}
	return dateOnly(*c.PrazoPropostas).Before(dateOnly(now))
}

// CountAtivos counts the active concursos in a collection.
func CountAtivos(concursos []models.Concurso, now time.Time) int {
	count := 0
	for _, c := range concursos {
		if IsAtivo(c, now) {
			count++
		}
	}
	return count
}

// PartitionStatus keeps the concursos on the requested side of the deadline
// partition. Null-deadline concursos fall in neither bucket.
func PartitionStatus(concursos []models.Concurso, status Status, now time.Time) []models.Concurso {
	out := make([]models.Concurso, 0, len(concursos))
	for _, c := range concursos {
		switch status {
		case StatusExpirados:
			if IsExpirado(c, now) {
				out = append(out, c)
			}
		default:
			if IsAtivo(c, now) {
				out = append(out, c)
			}
		}
	}
	return out
}

// MatchesFiltro checks a concurso against one filter. Conditions inside a
// filter are conjunctive; unset conditions are skipped, so a filter with no
// conditions matches everything.
func MatchesFiltro(c models.Concurso, f models.Filtro) bool {
	if f.Distrito != nil && *f.Distrito != "" {
		if c.Distrito == nil || *c.Distrito != *f.Distrito {
			return false
		}
	}

	if len(f.Municipios) > 0 {
		if c.Concelho == nil {
			return false
		}
		found := false
		for _, m := range f.Municipios {
			if m == *c.Concelho {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.Keywords) > 0 {
		text := searchText(c)
		found := false
		for _, kw := range f.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// searchText is the lowercase concatenation of the concurso's title, entity and
// descriptive free-text fields, used for keyword matching.
func searchText(c models.Concurso) string {
	parts := []string{c.Titulo, c.Entidade}
	if c.Monofator != nil {
		parts = append(parts, *c.Monofator)
	}
	if c.Multifator != nil {
		parts = append(parts, *c.Multifator)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// ApplyFiltros keeps the concursos matching at least one of the selected
// filters. With no filters selected nothing is excluded.
func ApplyFiltros(concursos []models.Concurso, filtros []models.Filtro) []models.Concurso {
	if len(filtros) == 0 {
		return concursos
	}
	out := make([]models.Concurso, 0, len(concursos))
	for _, c := range concursos {
		for _, f := range filtros {
			if MatchesFiltro(c, f) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// procNumber parses a procedure number for sorting. Non-numeric values compare
// as zero and cluster at the ascending minimum; this is deliberate.
func procNumber(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Sort orders the concursos by the given key. The sort is stable so that
// repeated renders of tied elements stay deterministic.
func Sort(concursos []models.Concurso, key SortKey) {
	less := func(a, b models.Concurso) bool {
		switch key.Field {
		case SortProcedimento:
			return procNumber(a.NProcedimento) < procNumber(b.NProcedimento)
		case SortPublicacao:
			return a.DataEnvio.Before(b.DataEnvio)
		default:
			return prazoValue(a).Before(prazoValue(b))
		}
	}
	sort.SliceStable(concursos, func(i, j int) bool {
		if key.Desc {
			return less(concursos[j], concursos[i])
		}
		return less(concursos[i], concursos[j])
	})
}

func prazoValue(c models.Concurso) time.Time {
	if c.PrazoPropostas == nil {
		return time.Time{}
	}
	return *c.PrazoPropostas
}

// Run applies the full listing transformation: status partition, custom-filter
// matching, then a stable sort. The input slice is not modified.
func Run(concursos []models.Concurso, status Status, filtros []models.Filtro, key SortKey, now time.Time) []models.Concurso {
	out := PartitionStatus(concursos, status, now)
	out = ApplyFiltros(out, filtros)
	Sort(out, key)
	return out
}
