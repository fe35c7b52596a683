package models

import (
	"time"

	"github.com/lib/pq"
)

// Concurso is a public procurement notice as published on the sourcing
// platforms. Rows are imported externally; the application never mutates them.
type Concurso struct {
	ID              string     `db:"id" json:"id"`
	NProcedimento   string     `db:"n_procedimento" json:"nProcedimento"`
	Titulo          string     `db:"titulo" json:"titulo" validate:"required"`
	Entidade        string     `db:"entidade" json:"entidade"`
	NIPC            string     `db:"nipc" json:"nipc"`
	DataEnvio       time.Time  `db:"data_envio" json:"dataEnvio"`
	PrazoPropostas  *time.Time `db:"prazo_propostas" json:"prazoPropostas"`
	PrecoBase       *float64   `db:"preco_base" json:"precoBase"`
	PrazoExecucao   *string    `db:"prazo_execucao" json:"prazoExecucao"`
	Urgente         bool       `db:"urgente" json:"urgente"`
	Distrito        *string    `db:"distrito" json:"distrito"`
	Concelho        *string    `db:"concelho" json:"concelho"`
	Monofator       *string    `db:"monofator" json:"monofator"`
	Multifator      *string    `db:"multifator" json:"multifator"`
	URLApresentacao *string    `db:"url_apresentacao" json:"urlApresentacao"`
	Plataforma      *string    `db:"plataforma" json:"plataforma"`
	FontePDF        *string    `db:"fonte_pdf" json:"fontePdf"`
}

// Entidade is an issuing public body, keyed by its tax number (NIPC).
type Entidade struct {
	NIPC     string `db:"nipc" json:"nipc"`
	Entidade string `db:"entidade" json:"entidade"`
}

// Municipio is reference data used to populate the filter-creation choices.
type Municipio struct {
	Distrito  string `db:"distrito" json:"distrito"`
	Municipio string `db:"municipio" json:"municipio"`
}

// UserSettings is the per-user settings document. Favoritos holds concurso ids,
// Entidades holds followed NIPCs. The row is upserted whole (last write wins).
type UserSettings struct {
	UserID    string         `db:"user_id" json:"userId"`
	Favoritos pq.StringArray `db:"favoritos" json:"favoritos"`
	Entidades pq.StringArray `db:"entidades" json:"entidades"`
}

// Filtro is a named, user-defined predicate for narrowing concurso lists.
// Unset conditions are skipped during matching.
type Filtro struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"-"`
	Nome       string         `db:"nome" json:"nome" validate:"required"`
	Distrito   *string        `db:"distrito" json:"distrito"`
	Municipios pq.StringArray `db:"municipios" json:"municipios"`
	Keywords   pq.StringArray `db:"keywords" json:"keywords"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}
