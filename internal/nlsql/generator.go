package nlsql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/tamaraiselva/text2sql/internal/schema"
)

// Completer is the seam between prompt construction and model backends.
// model may be empty, in which case the backend uses its configured
// default. Implementations return the raw response text untouched.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Request is one natural-language question plus the schema it should be
// answered against. Dialect names the SQL dialect for the prompt, Model
// optionally overrides the configured default.
type Request struct {
	Question string
	Schema   *schema.Description
	Dialect  string
	Model    string
}

// Generated holds the extracted statement together with the raw model
// response for diagnostics.
type Generated struct {
	SQL      string `json:"sql"`
	Raw      string `json:"raw"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Generator struct {
	completer    Completer
	provider     string
	defaultModel string
	allowed      []string
	timeout      time.Duration
}

func NewGenerator(completer Completer, provider, defaultModel string, allowed []string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		completer:    completer,
		provider:     provider,
		defaultModel: defaultModel,
		allowed:      allowed,
		timeout:      timeout,
	}
}

// Generate builds the prompt, calls the model once and extracts the
// statement. The call is bounded by the configured timeout regardless of
// the parent context.
func (g *Generator) Generate(ctx context.Context, req Request) (*Generated, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, &GenerationError{Kind: KindEmptyResponse, Detail: "question is empty"}
	}
	model, err := g.resolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	return g.complete(ctx, model, BuildPrompt(req.Dialect, req.Schema, req.Question))
}

// Repair asks the model to correct a statement the database rejected.
// Callers invoke it at most once per question.
func (g *Generator) Repair(ctx context.Context, req Request, badSQL string, execErr error) (*Generated, error) {
	model, err := g.resolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	return g.complete(ctx, model, buildRepairPrompt(req.Dialect, req.Schema, req.Question, badSQL, execErr))
}

func (g *Generator) complete(ctx context.Context, model, prompt string) (*Generated, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.completer.Complete(ctx, model, prompt)
	if err != nil {
		return nil, g.classify(err)
	}
	sql, err := ExtractStatement(raw)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) && genErr.Provider == "" {
			genErr.Provider = g.provider
		}
		return nil, err
	}
	return &Generated{SQL: sql, Raw: raw, Provider: g.provider, Model: model}, nil
}

func (g *Generator) resolveModel(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return g.defaultModel, nil
	}
	if len(g.allowed) == 0 {
		return requested, nil
	}
	for _, name := range g.allowed {
		if name == requested {
			return requested, nil
		}
	}
	return "", &GenerationError{
		Kind:     KindBackendFailure,
		Provider: g.provider,
		Detail:   fmt.Sprintf("model %q is not in the allowed list", requested),
	}
}

func (g *Generator) classify(err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		if genErr.Provider == "" {
			genErr.Provider = g.provider
		}
		return genErr
	}
	kind := KindBackendFailure
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &GenerationError{Kind: kind, Provider: g.provider, Err: err}
}

// BuildPrompt is deterministic for a given dialect, schema and question:
// identical inputs produce the identical prompt.
func BuildPrompt(dialect string, desc *schema.Description, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert %s SQL analyst. Database schema, one table per line:\n\n", dialectName(dialect))
	if desc != nil {
		b.WriteString(desc.Render())
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. Return exactly one SQL statement and nothing else. No markdown, no explanation.\n")
	b.WriteString("2. Use explicit JOIN syntax.\n")
	b.WriteString("3. Qualify column names with table aliases.\n")
	b.WriteString("4. Include relevant WHERE clauses.\n")
	b.WriteString("5. Handle NULL values appropriately.\n")
	b.WriteString("\nQuestion:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n")
	return b.String()
}

func buildRepairPrompt(dialect string, desc *schema.Description, question, badSQL string, execErr error) string {
	var b strings.Builder
	b.WriteString(BuildPrompt(dialect, desc, question))
	b.WriteString("\nThe previous attempt failed. Statement:\n")
	b.WriteString(strings.TrimSpace(badSQL))
	fmt.Fprintf(&b, "\n\nDatabase error:\n%v\n", execErr)
	b.WriteString("\nReturn one corrected SQL statement and nothing else.\n")
	return b.String()
}

func dialectName(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "sqlite":
		return "SQLite"
	case "duckdb":
		return "DuckDB"
	case "mysql":
		return "MySQL"
	case "postgres":
		return "PostgreSQL"
	case "sqlserver":
		return "SQL Server"
	default:
		return "SQL"
	}
}
