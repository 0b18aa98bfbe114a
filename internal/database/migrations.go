package database

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/nextbet/internal/models"
)

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	return migrateLegacySnapshot(NewKVStore(db))
}

// legacyEnvelope is the shape the browser-only frontend persisted: the state
// wrapped in {"state": ..., "version": n} with Portuguese field names
type legacyEnvelope struct {
	State   *legacyState `json:"state"`
	Version int          `json:"version"`
}

type legacyState struct {
	Banca     float64          `json:"banca"`
	Modo      string           `json:"modo"`
	IsPremium bool             `json:"isPremium"`
	Historico []legacyAnalysis `json:"historico"`
	Metas     struct {
		MetaDiaria          float64 `json:"metaDiaria"`
		Progresso           float64 `json:"progresso"`
		ProgressoPercentual float64 `json:"progressoPercentual"`
	} `json:"metas"`
	LastAnalysisTime *int64 `json:"lastAnalysisTime"`
}

type legacyAnalysis struct {
	ID                 string          `json:"id"`
	Timestamp          int64           `json:"timestamp"`
	ImageThumbnail     string          `json:"imageThumbnail"`
	LadoRecomendado    string          `json:"ladoRecomendado"`
	Confianca          int             `json:"confianca"`
	Modo               string          `json:"modo"`
	FrequenciaAzul     *int            `json:"frequenciaAzul"`
	FrequenciaVermelho *int            `json:"frequenciaVermelho"`
	Recencia           *models.Recency `json:"recencia"`
	MaxStreak          *int            `json:"maxStreak"`
	AlternanciaIndex   string          `json:"alternanciaIndex"`
	PadraoDetalhado    string          `json:"padraoDetalhado"`
	Risco              string          `json:"risco"`
	ValorSugerido      *float64        `json:"valorSugerido"`
	Pergunta           string          `json:"pergunta"`
	Resultado          string          `json:"resultado"`
}

// migrateLegacySnapshot rewrites a snapshot imported from the old frontend's
// local storage into the current format. Safe to run repeatedly: current
// snapshots have no "state" wrapper and are left alone.
func migrateLegacySnapshot(kv *KVStore) error {
	raw, ok, err := kv.Get(models.SnapshotKey)
	if err != nil || !ok {
		return err
	}

	var env legacyEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.State == nil {
		return nil
	}

	log.Printf("Migrating legacy snapshot (version %d, %d history entries)", env.Version, len(env.State.Historico))

	snap := convertLegacyState(env.State)
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return kv.Put(models.SnapshotKey, string(data))
}

func convertLegacyState(ls *legacyState) models.Snapshot {
	snap := models.Snapshot{
		Bankroll: ls.Banca,
		Mode:     legacyMode(ls.Modo),
		Premium:  ls.IsPremium,
		History:  make([]*models.AnalysisResult, 0, len(ls.Historico)),
		Goals: models.GoalProgress{
			DailyTarget:     int(ls.Metas.MetaDiaria),
			Progress:        ls.Metas.Progresso,
			ProgressPercent: int(ls.Metas.ProgressoPercentual),
		},
	}
	if ls.LastAnalysisTime != nil {
		t := time.UnixMilli(*ls.LastAnalysisTime)
		snap.LastAnalysisTriggerTime = &t
	}

	for _, la := range ls.Historico {
		snap.History = append(snap.History, &models.AnalysisResult{
			ID:               la.ID,
			Timestamp:        time.UnixMilli(la.Timestamp),
			ImageThumbnail:   la.ImageThumbnail,
			RecommendedSide:  legacySide(la.LadoRecomendado),
			Confidence:       la.Confianca,
			Mode:             legacyMode(la.Modo),
			BlueFrequency:    la.FrequenciaAzul,
			RedFrequency:     la.FrequenciaVermelho,
			Recency:          la.Recencia,
			MaxStreak:        la.MaxStreak,
			AlternationIndex: legacyAlternation(la.AlternanciaIndex),
			Pattern:          la.PadraoDetalhado,
			Risk:             legacyRisk(la.Risco),
			SuggestedStake:   la.ValorSugerido,
			Question:         la.Pergunta,
			Outcome:          legacyOutcome(la.Resultado),
		})
	}

	return snap
}

func legacyMode(s string) models.Mode {
	if s == "alavancagem" {
		return models.ModeLeveraged
	}
	return models.ModeNormal
}

func legacySide(s string) models.Side {
	if s == "vermelho" {
		return models.SideRed
	}
	return models.SideBlue
}

func legacyRisk(s string) models.Risk {
	switch s {
	case "Baixo":
		return models.RiskLow
	case "Médio":
		return models.RiskMedium
	case "Alto":
		return models.RiskHigh
	}
	return ""
}

func legacyAlternation(s string) models.Alternation {
	switch s {
	case "alto":
		return models.AlternationHigh
	case "médio":
		return models.AlternationMedium
	case "baixo":
		return models.AlternationLow
	}
	return ""
}

func legacyOutcome(s string) models.Outcome {
	switch s {
	case "vitoria":
		return models.OutcomeWin
	case "derrota":
		return models.OutcomeLoss
	}
	return ""
}
