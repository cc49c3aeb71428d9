package ai

import (
	"context"
	"fmt"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/reports"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

var (
	ErrNotConfigured = errors.New("the assistant is not configured, set GEMINI_API_KEY")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrBadArgument   = errors.New("bad tool argument")
)

// maxRounds bounds how many tool round trips one question may take.
const maxRounds = 5

// Backend is what the assistant may read and change.
type Backend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	RangeTotals(ctx context.Context, r reports.Range) (reports.Totals, error)
	TopItems(ctx context.Context, r reports.Range, limit int) ([]reports.ItemStat, error)
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (models.Product, error)
	Location() *time.Location
}

// Agent answers questions about the shop with Gemini function calling.
type Agent struct {
	apiKey  string
	model   string
	backend Backend
	now     func() time.Time
}

func NewAgent(apiKey, model string, backend Backend) *Agent {
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	return &Agent{apiKey: apiKey, model: model, backend: backend, now: time.Now}
}

func (a *Agent) Enabled() bool { return a.apiKey != "" }

// Ask sends the question, runs every tool the model calls and returns the
// model's final text.
func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", errors.Wrap(err, "create gemini client")
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(a.systemPrompt())}}
	model.Tools = tools

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", errors.Wrap(err, "send message")
	}

	for round := 0; round < maxRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}
		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := executeTool(ctx, a.backend, call.Name, call.Args)
			if err != nil {
				log.WithError(err).WithField("tool", call.Name).Warn("assistant tool failed")
				result = map[string]interface{}{"error": err.Error()}
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: result})
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", errors.Wrap(err, "send tool results")
		}
	}
	return printResponse(resp), nil
}

func (a *Agent) systemPrompt() string {
	today := a.now().In(a.backend.Location()).Format(reports.DateLayout)
	return fmt.Sprintf(`Today is %s. You are the assistant of a cafe point of sale. Prices are in pesos.

RULES:
1. UPDATE: If the user asks to change a price by product NAME, do not ask for the ID.
   Call 'check_menu' to find the ID, then call 'update_product_price'.
2. READ: For the price, category or availability of a product, call 'check_menu' and answer from it.
3. SALES: For revenue or order counts over dates, call 'get_sales_report'.
4. BEST SELLERS: For the best selling items, call 'get_top_items'.`, today)
}

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_menu",
				Description: "Get the full menu. Use this to find ANY product details like ID, name, price, category or stock.",
			},
			{
				Name:        "update_product_price",
				Description: "Update the price of a specific product using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
						"new_price":  {Type: genai.TypeNumber, Description: "New price"},
					},
					Required: []string{"product_id", "new_price"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get total sales revenue and order count for a date range, both days included.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "get_top_items",
				Description: "Get the best selling items by revenue for a period.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"period": {Type: genai.TypeString, Description: "today, week, month or all", Enum: []string{"today", "week", "month", "all"}},
						"limit":  {Type: genai.TypeInteger, Description: "How many items, default 5"},
					},
					Required: []string{"period"},
				},
			},
		},
	},
}

type menuItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Active   bool    `json:"active"`
	InStock  bool    `json:"inStock"`
}

// executeTool runs one tool call against b and returns the response the
// model gets back.
func executeTool(ctx context.Context, b Backend, name string, args map[string]interface{}) (map[string]interface{}, error) {
	switch name {
	case "check_menu":
		products, err := b.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]menuItem, len(products))
		for i, p := range products {
			price, _ := p.Price.Float64()
			items[i] = menuItem{ID: p.ID, Name: p.Name, Price: price, Category: p.Category, Active: p.Active, InStock: p.InStock}
		}
		return map[string]interface{}{"menu": items}, nil

	case "update_product_price":
		id, err := argInt(args, "product_id")
		if err != nil {
			return nil, err
		}
		price, err := argNumber(args, "new_price")
		if err != nil {
			return nil, err
		}
		p, err := b.UpdatePrice(ctx, id, decimal.NewFromFloat(price).Round(2))
		if err != nil {
			return map[string]interface{}{"status": "failed", "reason": err.Error()}, nil
		}
		log.WithFields(log.Fields{"product_id": p.ID, "price": p.Price.String()}).Info("price changed by assistant")
		return map[string]interface{}{"status": "success", "name": p.Name, "new_price": p.Price.StringFixed(2)}, nil

	case "get_sales_report":
		start, err := argString(args, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := argString(args, "end_date")
		if err != nil {
			return nil, err
		}
		r, err := reports.ParseRange(string(reports.Custom), start, end, b.Location())
		if err != nil {
			return nil, errors.Wrap(ErrBadArgument, "dates must be in YYYY-MM-DD format")
		}
		totals, err := b.RangeTotals(ctx, r)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"revenue": totals.Revenue.StringFixed(2), "sales_count": totals.OrderCount}, nil

	case "get_top_items":
		period, err := argString(args, "period")
		if err != nil {
			return nil, err
		}
		r, err := reports.ParseRange(period, "", "", b.Location())
		if err != nil || r.Kind == reports.Custom {
			return nil, errors.Wrapf(ErrBadArgument, "period %q", period)
		}
		limit := 5
		if _, ok := args["limit"]; ok {
			n, err := argInt(args, "limit")
			if err != nil {
				return nil, err
			}
			if n > 0 {
				limit = int(n)
			}
		}
		items, err := b.TopItems(ctx, r, limit)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, len(items))
		for i, it := range items {
			out[i] = map[string]interface{}{"name": it.Name, "quantity": it.Quantity, "revenue": it.Revenue.StringFixed(2)}
		}
		return map[string]interface{}{"items": out}, nil
	}
	return nil, errors.Wrapf(ErrUnknownTool, "%q", name)
}

func argString(args map[string]interface{}, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", errors.Wrapf(ErrBadArgument, "%s must be a string", key)
	}
	return s, nil
}

func argNumber(args map[string]interface{}, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, errors.Wrapf(ErrBadArgument, "%s must be a number", key)
}

func argInt(args map[string]interface{}, key string) (int64, error) {
	f, err := argNumber(args, key)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, errors.Wrapf(ErrBadArgument, "%s must be a whole number", key)
	}
	return int64(f), nil
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

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I completed the action."
}
