package httpapi

import (
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/reconcile"
)

const maxRequestBodyBytes = 1 << 20

func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, dst)
}

// provenanceDTO appears only when the caller asked for ?debug=1.
type provenanceDTO struct {
	Fuentes   []string `json:"fuentes,omitempty"`
	Sintetico bool     `json:"sintetico,omitempty"`
}

func toProvenance(sources []string, synthetic, debug bool) *provenanceDTO {
	if !debug {
		return nil
	}
	return &provenanceDTO{Fuentes: sources, Sintetico: synthetic}
}

type ligaDTO struct {
	ID              string         `json:"id,omitempty"`
	Codigo          string         `json:"codigo"`
	Nombre          string         `json:"nombre"`
	Pais            string         `json:"pais,omitempty"`
	TemporadaActual string         `json:"temporada_actual,omitempty"`
	Origen          *provenanceDTO `json:"origen,omitempty"`
}

func toLigaDTO(item reconcile.Resolved[league.League], debug bool) ligaDTO {
	l := item.Entity
	return ligaDTO{
		ID:              l.ID,
		Codigo:          l.Code,
		Nombre:          l.Name,
		Pais:            l.Country,
		TemporadaActual: l.CurrentSeason,
		Origen:          toProvenance(item.Sources, item.Synthetic, debug),
	}
}

type equipoDTO struct {
	ID          string         `json:"id,omitempty"`
	Nombre      string         `json:"nombre"`
	NombreCorto string         `json:"nombre_corto,omitempty"`
	Pais        string         `json:"pais,omitempty"`
	Fundacion   int            `json:"fundacion,omitempty"`
	Estadio     string         `json:"estadio,omitempty"`
	EscudoURL   string         `json:"escudo_url,omitempty"`
	Liga        string         `json:"liga,omitempty"`
	Origen      *provenanceDTO `json:"origen,omitempty"`
}

func toEquipoDTO(item reconcile.Resolved[team.Team], debug bool) equipoDTO {
	t := item.Entity
	return equipoDTO{
		ID:          t.ID,
		Nombre:      t.Name,
		NombreCorto: t.ShortName,
		Pais:        t.Country,
		Fundacion:   t.FoundedYear,
		Estadio:     t.Stadium,
		EscudoURL:   t.CrestURL,
		Liga:        t.LeagueID,
		Origen:      toProvenance(item.Sources, item.Synthetic, debug),
	}
}

type jugadorDTO struct {
	ID              string         `json:"id,omitempty"`
	Nombre          string         `json:"nombre"`
	Apellido        string         `json:"apellido,omitempty"`
	Posicion        string         `json:"posicion,omitempty"`
	Nacionalidad    string         `json:"nacionalidad,omitempty"`
	FechaNacimiento string         `json:"fecha_nacimiento,omitempty"`
	AlturaCm        int            `json:"altura_cm,omitempty"`
	PesoKg          int            `json:"peso_kg,omitempty"`
	Dorsal          int            `json:"dorsal,omitempty"`
	EquipoID        string         `json:"equipo_id,omitempty"`
	Origen          *provenanceDTO `json:"origen,omitempty"`
}

func toJugadorDTO(item reconcile.Resolved[player.Player], debug bool) jugadorDTO {
	p := item.Entity
	return jugadorDTO{
		ID:              p.ID,
		Nombre:          p.FirstName,
		Apellido:        p.LastName,
		Posicion:        p.Position,
		Nacionalidad:    p.Nationality,
		FechaNacimiento: p.BirthDate,
		AlturaCm:        p.HeightCm,
		PesoKg:          p.WeightKg,
		Dorsal:          p.JerseyNumber,
		EquipoID:        p.TeamID,
		Origen:          toProvenance(item.Sources, item.Synthetic, debug),
	}
}

type partidoDTO struct {
	ID                string         `json:"id,omitempty"`
	Fecha             string         `json:"fecha"`
	Liga              string         `json:"liga,omitempty"`
	EquipoLocalID     string         `json:"equipo_local_id,omitempty"`
	EquipoVisitanteID string         `json:"equipo_visitante_id,omitempty"`
	EquipoLocal       string         `json:"equipo_local"`
	EquipoVisitante   string         `json:"equipo_visitante"`
	GolesLocal        *int           `json:"goles_local,omitempty"`
	GolesVisitante    *int           `json:"goles_visitante,omitempty"`
	Estado            string         `json:"estado"`
	Temporada         string         `json:"temporada,omitempty"`
	Estadio           string         `json:"estadio,omitempty"`
	Arbitro           string         `json:"arbitro,omitempty"`
	Origen            *provenanceDTO `json:"origen,omitempty"`
}

func toPartidoDTO(item reconcile.Resolved[match.Match], debug bool) partidoDTO {
	m := item.Entity
	return partidoDTO{
		ID:                m.ID,
		Fecha:             m.Date.UTC().Format(time.RFC3339),
		Liga:              m.LeagueID,
		EquipoLocalID:     m.HomeTeamID,
		EquipoVisitanteID: m.AwayTeamID,
		EquipoLocal:       m.HomeTeam,
		EquipoVisitante:   m.AwayTeam,
		GolesLocal:        m.HomeScore,
		GolesVisitante:    m.AwayScore,
		Estado:            m.Status,
		Temporada:         m.Season,
		Estadio:           m.Venue,
		Arbitro:           m.Referee,
		Origen:            toProvenance(item.Sources, item.Synthetic, debug),
	}
}

type clasificacionDTO struct {
	Posicion    int            `json:"posicion"`
	EquipoID    string         `json:"equipo_id,omitempty"`
	Equipo      string         `json:"equipo"`
	Jugados     int            `json:"jugados"`
	Ganados     int            `json:"ganados"`
	Empatados   int            `json:"empatados"`
	Perdidos    int            `json:"perdidos"`
	GolesFavor  int            `json:"goles_favor"`
	GolesContra int            `json:"goles_contra"`
	Diferencia  int            `json:"diferencia"`
	Puntos      int            `json:"puntos"`
	Origen      *provenanceDTO `json:"origen,omitempty"`
}

func toClasificacionDTO(item reconcile.Resolved[standings.Row], debug bool) clasificacionDTO {
	row := item.Entity
	return clasificacionDTO{
		Posicion:    row.Position,
		EquipoID:    row.TeamID,
		Equipo:      row.TeamName,
		Jugados:     row.Played,
		Ganados:     row.Won,
		Empatados:   row.Drawn,
		Perdidos:    row.Lost,
		GolesFavor:  row.GoalsFor,
		GolesContra: row.GoalsAgainst,
		Diferencia:  row.GoalDifference(),
		Puntos:      row.Points,
		Origen:      toProvenance(item.Sources, item.Synthetic, debug),
	}
}

type estadisticasDTO struct {
	EquipoID    string         `json:"equipo_id"`
	Temporada   string         `json:"temporada,omitempty"`
	Jugados     int            `json:"jugados"`
	Ganados     int            `json:"ganados"`
	Empatados   int            `json:"empatados"`
	Perdidos    int            `json:"perdidos"`
	GolesFavor  int            `json:"goles_favor"`
	GolesContra int            `json:"goles_contra"`
	Origen      *provenanceDTO `json:"origen,omitempty"`
}

func toEstadisticasDTO(item reconcile.Resolved[team.Stats], debug bool) estadisticasDTO {
	st := item.Entity
	return estadisticasDTO{
		EquipoID:    st.TeamID,
		Temporada:   st.Season,
		Jugados:     st.Played,
		Ganados:     st.Wins,
		Empatados:   st.Draws,
		Perdidos:    st.Losses,
		GolesFavor:  st.GoalsFor,
		GolesContra: st.GoalsAgainst,
		Origen:      toProvenance(item.Sources, item.Synthetic, debug),
	}
}
