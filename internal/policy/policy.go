// Package policy gates bulk sends with a Rego policy evaluated via the OPA
// v1 sdk. The policy decides whether a campaign may go out at all, e.g.
// capping recipient counts or restricting destination domains.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

// Query evaluated against the send policy; its result must carry an
// "action" of "allow" for the dispatch to proceed.
const defaultQuery = "data.bulksender.result"

// Input is the document the policy sees for one dispatch request.
type Input struct {
	Subject          string   `json:"subject"`
	TotalRecipients  int      `json:"totalRecipients"`
	RecipientDomains []string `json:"recipientDomains"`
	DryRun           bool     `json:"dryRun"`
}

// InputFrom builds the policy document for a dispatch request. Recipient
// domains are lower-cased and deduplicated in order of first appearance.
func InputFrom(req *types.BulkRequest) *Input {
	seen := map[string]struct{}{}
	var domains []string
	for _, r := range req.Recipients {
		at := strings.LastIndex(r.Email, "@")
		if at == -1 {
			continue
		}
		domain := strings.ToLower(r.Email[at+1:])
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	return &Input{
		Subject:          req.Subject,
		TotalRecipients:  len(req.Recipients),
		RecipientDomains: domains,
		DryRun:           req.DryRun,
	}
}

// Decision is the policy verdict.
type Decision struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// Allowed reports whether the verdict permits the send.
func (d *Decision) Allowed() bool {
	return d != nil && d.Action == "allow"
}

// Prepared holds a compiled policy ready for evaluation
type Prepared struct {
	query rego.PreparedEvalQuery
}

// Prepare compiles a policy and query for later evaluation.
// This should be called once at initialization and the result cached.
func Prepare(ctx context.Context, policy string, query string) (*Prepared, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module("policy.rego", policy),
		rego.SetRegoVersion(ast.RegoV1),
	)

	pq, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy: %w", err)
	}

	return &Prepared{query: pq}, nil
}

// Evaluate runs the prepared policy against the given input and returns the result as type T
func Evaluate[T any](ctx context.Context, pp *Prepared, input any) (*T, error) {
	rs, err := pp.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, fmt.Errorf("no results found during policy evaluation")
	}

	raw := rs[0].Expressions[0].Value
	bs, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy result: %w", err)
	}

	var out T
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy result: %w", err)
	}

	return &out, nil
}

// ReadPolicy loads a Rego source file.
func ReadPolicy(path string) (string, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}

	return string(p), nil
}

// Gate is a prepared send policy bound to the default query.
type Gate struct {
	prepared *Prepared
}

// Load reads and compiles the send policy at path. Called once at startup.
func Load(ctx context.Context, path string) (*Gate, error) {
	src, err := ReadPolicy(path)
	if err != nil {
		return nil, err
	}
	pp, err := Prepare(ctx, src, defaultQuery)
	if err != nil {
		return nil, err
	}
	return &Gate{prepared: pp}, nil
}

// Decide evaluates the send policy for one dispatch request.
func (g *Gate) Decide(ctx context.Context, in *Input) (*Decision, error) {
	return Evaluate[Decision](ctx, g.prepared, in)
}
