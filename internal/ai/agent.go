// Package ai is the back-office assistant: a Gemini chat session that can
// call read-only tools over the shop's data.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const maxToolRounds = 4

var ErrNotConfigured = errors.New("assistant is not configured")

// Agent answers one question per call; no history is kept between calls.
type Agent struct {
	apiKey string
	model  string
	tools  Toolbox
	now    func() time.Time
}

func NewAgent(apiKey, model string, tools Toolbox) *Agent {
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	return &Agent{apiKey: apiKey, model: model, tools: tools, now: time.Now}
}

// Enabled reports whether an API key was configured.
func (a *Agent) Enabled() bool {
	return a != nil && a.apiKey != ""
}

func (a *Agent) systemPrompt(userMessage string) string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the back-office assistant of a retail shop.

	RULES:
	1. PRODUCTS: for price, cost, stock or details of a product, call 'check_inventory' and read the list.
	2. TODAY: for "how did we do today", best seller, profit or commissions, call 'get_daily_statistics'.
	3. RANGES: for revenue over several days, call 'get_sales_report'.
	4. INVOICES: for the next invoice number, call 'next_invoice_code'.
	5. You cannot change anything. If asked to, say so.

	USER: %s`, a.now().Format("2006-01-02"), userMessage)
}

func declarations() []*genai.Tool {
	date := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeString, Description: desc} }
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        ToolInventory,
				Description: "Get the full inventory list with code, name, price, cost and stock of every product.",
			},
			{
				Name:        ToolDailyStatistics,
				Description: "Revenue, gross profit, manager commission and best seller for one day.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"date": date("Day (YYYY-MM-DD); today when omitted")},
				},
			},
			{
				Name:        ToolSalesReport,
				Description: "Get total sales revenue and count for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": date("Start date (YYYY-MM-DD)"),
						"end_date":   date("End date (YYYY-MM-DD), inclusive"),
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        ToolNextInvoice,
				Description: "The invoice number the next sale recorded today will receive.",
			},
		},
	}}
}

// Ask runs the conversation, answering tool calls until the model replies
// with text.
func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = declarations()
	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(a.systemPrompt(userMessage)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return replyText(resp), nil
		}

		answers := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			answers = append(answers, genai.FunctionResponse{Name: call.Name, Response: a.dispatch(ctx, call)})
		}
		if resp, err = session.SendMessage(ctx, answers...); err != nil {
			return "", err
		}
	}
	return replyText(resp), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I could not find an answer."
}
