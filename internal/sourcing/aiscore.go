package sourcing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/andres/talent-tracker/internal/db"
	"github.com/andres/talent-tracker/internal/llm"
	"github.com/andres/talent-tracker/internal/matching"
)

// scoreSchema constrains the model output to the fields we store.
const scoreSchema = `{
  "type": "object",
  "properties": {
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "analysis": {"type": "string"}
  },
  "required": ["score", "analysis"],
  "additionalProperties": false
}`

const fallbackAnalysis = "Puntaje calculado con el método determinista (servicio de IA no disponible)."

// Scorer rates a sourced profile against a vacancy. The model does the
// scoring; when it fails or returns garbage, the deterministic weighted
// scorer takes over so a campaign run never dies on an upstream outage.
type Scorer struct {
	client llm.Client
	logger *zap.Logger
}

func NewScorer(client llm.Client, logger *zap.Logger) *Scorer {
	return &Scorer{client: client, logger: logger}
}

type scoreResult struct {
	Score    int    `json:"score"`
	Analysis string `json:"analysis"`
}

// Score returns a 0-100 match score and a free-text analysis.
func (s *Scorer) Score(ctx context.Context, vacancy *db.Vacancy, p Profile) (int, string) {
	if s.client != nil {
		result, err := s.aiScore(ctx, vacancy, p)
		if err == nil {
			return result.Score, result.Analysis
		}
		s.logger.Warn("AI scoring failed, using deterministic fallback",
			zap.String("candidate_email", p.Email),
			zap.Error(err))
	}
	return s.fallback(vacancy, p), fallbackAnalysis
}

func (s *Scorer) aiScore(ctx context.Context, vacancy *db.Vacancy, p Profile) (*scoreResult, error) {
	prompt := buildScorePrompt(vacancy, p)
	raw, err := s.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	cleaned := llm.CleanJSONBlock(raw)

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(scoreSchema),
		gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("schema validation errored: %w", err)
	}
	if !validation.Valid() {
		return nil, fmt.Errorf("model output failed schema validation: %v", validation.Errors())
	}

	var result scoreResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to decode model output: %w", err)
	}
	return &result, nil
}

func (s *Scorer) fallback(vacancy *db.Vacancy, p Profile) int {
	job := matching.Job{
		Title:         vacancy.Title,
		RequiredYears: vacancy.RequiredYears,
	}
	if vacancy.SalaryMin != nil {
		job.SalaryMin = *vacancy.SalaryMin
	}
	return matching.Score(job, matching.Candidate{
		Title: p.Title,
		Years: p.Years,
	})
}

func buildScorePrompt(vacancy *db.Vacancy, p Profile) string {
	salary := "no especificado"
	if vacancy.SalaryMin != nil {
		salary = fmt.Sprintf("%d", *vacancy.SalaryMin)
	}
	return fmt.Sprintf(`Eres un reclutador técnico. Evalúa qué tan bien encaja el siguiente perfil con la vacante y responde SOLO con un objeto JSON {"score": <0-100>, "analysis": "<análisis breve en español>"}.

Vacante:
- Título: %s
- Años de experiencia requeridos: %d
- Salario mínimo: %s

Perfil:
- Nombre: %s
- Título actual: %s
- Años de experiencia: %d
- Fuente: %s`,
		vacancy.Title, vacancy.RequiredYears, salary,
		p.Name, p.Title, p.Years, p.Source)
}
