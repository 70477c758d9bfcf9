package agent

import (
	"sort"
	"strings"
	"text/template"

	"github.com/dshills/agentgraph-go/tool"
)

// reactTemplate is the single ReAct prompt the controller renders each
// iteration. No ecosystem templating library in the reference corpus
// covers this narrow a need (one flat placeholder substitution, no
// partials or control flow beyond what text/template already gives us
// for free), so this is one of the few places the implementation reaches
// for the standard library by choice rather than necessity.
var reactTemplate = template.Must(template.New("react").Parse(`{{.Instruction}}

Available tools:
{{.Tools}}

Tool names: Final Answer, {{.ToolNames}}

Respond with a single JSON object, optionally inside a fenced code block:
{"action": "<tool name or Final Answer>", "action_input": <tool input>}

Conversation history:
{{.History}}

Question: {{.Query}}
{{.Scratchpad}}`))

type promptValues struct {
	Instruction string
	Tools       string
	ToolNames   string
	History     string
	Query       string
	Scratchpad  string
}

// buildPrompt renders the ReAct prompt for one iteration. history is
// already truncated to the controller's memory window.
func buildPrompt(instruction string, tools *tool.Set, query string, history []string, scratchpad string) string {
	var b strings.Builder
	_ = reactTemplate.Execute(&b, promptValues{
		Instruction: instruction,
		Tools:       describeTools(tools),
		ToolNames:   toolNames(tools),
		History:     strings.Join(history, "\n"),
		Query:       query,
		Scratchpad:  scratchpad,
	})
	return b.String()
}

func describeTools(tools *tool.Set) string {
	all := tools.All()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	var lines []string
	for _, t := range all {
		line := "- " + t.Name + ": " + t.Description
		names := make([]string, 0, len(t.Params))
		for name := range t.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := t.Params[name]
			line += "\n    " + name + " (" + p.Type + "): " + p.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func toolNames(tools *tool.Set) string {
	all := tools.All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
