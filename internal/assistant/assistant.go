package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"hyde/internal/reconciler"
	"hyde/internal/settings"
	"hyde/pkg/logging"
)

// Suggestion is the model's reply and the changes found in it.
type Suggestion struct {
	Message string
	Changes []reconciler.Change
}

// Assistant suggests setting changes for a free-text request.
type Assistant interface {
	Suggest(ctx context.Context, prompt string, current map[string]map[string]any) (*Suggestion, error)
	Reset()
}

// ChatAssistant keeps a conversation with a ChatClient. It is safe for
// concurrent use, but requests are serialized.
type ChatAssistant struct {
	client     ChatClient
	registry   *settings.Registry
	maxHistory int

	mu      sync.Mutex
	history []Message
}

// NewChatAssistant creates a ChatAssistant. The registry describes the
// domains to the model; maxHistory bounds the kept conversation (0 means
// unbounded).
func NewChatAssistant(client ChatClient, registry *settings.Registry, maxHistory int) *ChatAssistant {
	return &ChatAssistant{
		client:     client,
		registry:   registry,
		maxHistory: maxHistory,
	}
}

// Suggest sends prompt along with the current values. A reply without a
// JSON block is not an error; the Suggestion then has no changes.
func (a *ChatAssistant) Suggest(ctx context.Context, prompt string, current map[string]map[string]any) (*Suggestion, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("empty request")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	system, err := a.systemPrompt(current)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(a.history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: system})
	messages = append(messages, a.history...)
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	reply, err := a.client.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	a.history = append(a.history,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: reply},
	)
	if a.maxHistory > 0 && len(a.history) > a.maxHistory {
		a.history = a.history[len(a.history)-a.maxHistory:]
	}

	s := &Suggestion{Message: reply}
	if block, ok := ExtractJSON(reply); ok {
		s.Changes = ParseChanges(block)
	}
	logging.Debug("Assistant", "Reply contained %d changes", len(s.Changes))
	return s, nil
}

// Reset clears the conversation.
func (a *ChatAssistant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// History returns a copy of the conversation.
func (a *ChatAssistant) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.history...)
}

type keyDescription struct {
	Current     any      `json:"current"`
	Type        string   `json:"type"`
	Default     any      `json:"default"`
	Enum        []string `json:"enum,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (a *ChatAssistant) systemPrompt(current map[string]map[string]any) (string, error) {
	described := make(map[string]map[string]keyDescription)
	for _, d := range a.registry.Domains() {
		keys := make(map[string]keyDescription, len(d.Keys))
		for _, k := range d.Keys {
			cur, ok := current[d.Name][k.Name]
			if !ok {
				cur = k.Default
			}
			keys[k.Name] = keyDescription{
				Current:     cur,
				Type:        string(k.Type),
				Default:     k.Default,
				Enum:        k.Enum,
				Min:         k.Min,
				Max:         k.Max,
				Description: k.Description,
			}
		}
		described[d.Name] = keys
	}

	raw, err := json.Marshal(described)
	if err != nil {
		return "", fmt.Errorf("describe settings: %w", err)
	}

	return fmt.Sprintf(systemPromptTemplate, pretty.Pretty(raw)), nil
}

const systemPromptTemplate = `You are an assistant for the HyDE desktop environment configuration.
The user describes what they want to change. Explain briefly what you are changing, then
return a JSON object in a fenced json block with the changes:

{"changes": [{"domain": "domain_name", "key": "setting_key", "value": "new_value"}]}

Only use domains and keys listed below and respect their type, enum and range.
Only include settings that need to change. If nothing needs to change, return an
empty changes array.

Available settings, grouped by domain:
%s`

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON finds the JSON object in a model reply: the first fenced code
// block, or else the text from the first '{' to the last '}'.
func ExtractJSON(reply string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(reply); m != nil && gjson.Valid(m[1]) {
		return m[1], true
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", false
	}
	block := reply[start : end+1]
	if !gjson.Valid(block) {
		return "", false
	}
	return block, true
}

// domainAliases maps category names used by older HyDE tooling.
var domainAliases = map[string]string{
	"window_management": settings.DomainWindow,
	"windows":           settings.DomainWindow,
	"notifications":     settings.DomainNotification,
}

// keyAliases maps key names used by older HyDE tooling that do not follow
// from the snake_case to camelCase rule.
var keyAliases = map[string]string{
	"notification_timeout":  "timeout",
	"notification_position": "position",
}

// keyHomes lists keys older HyDE tooling filed under another domain.
var keyHomes = map[string]string{
	"borderRadius": settings.DomainAppearance,
}

// normalizeKey turns "border_radius" into "borderRadius". Keys that are
// already camelCase come back unchanged.
func normalizeKey(key string) string {
	if alias, ok := keyAliases[strings.ToLower(key)]; ok {
		return alias
	}
	if !strings.Contains(key, "_") {
		return key
	}
	var b strings.Builder
	for i, part := range strings.Split(strings.ToLower(key), "_") {
		if part == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			part = strings.ToUpper(part[:1]) + part[1:]
		}
		b.WriteString(part)
	}
	return b.String()
}

// ParseChanges reads the "changes" array of a JSON block. Entries without a
// domain (or "category"), key or value are skipped. Domain and key names of
// older HyDE tooling are translated; nothing is validated here.
func ParseChanges(block string) []reconciler.Change {
	var changes []reconciler.Change
	gjson.Get(block, "changes").ForEach(func(_, entry gjson.Result) bool {
		domain := entry.Get("domain").String()
		if domain == "" {
			domain = entry.Get("category").String()
		}
		if alias, ok := domainAliases[strings.ToLower(domain)]; ok {
			domain = alias
		}
		key := normalizeKey(entry.Get("key").String())
		value := entry.Get("value")
		if domain == "" || key == "" || !value.Exists() {
			logging.Debug("Assistant", "Skipping incomplete change: %s", entry.Raw)
			return true
		}
		if home, ok := keyHomes[key]; ok && domain == settings.DomainWindow {
			domain = home
		}
		changes = append(changes, reconciler.Change{Domain: domain, Key: key, Value: value.Value()})
		return true
	})
	return changes
}
