package classify

// classificationPrompt is the prompt template for task classification.
// Arguments: the task, then the provider summaries as JSON.
const classificationPrompt = `Decide whether this task needs external apps to be completed, and if so which ones.

Task:
%s

Available apps (id, name, description):
%s

Rules:
- requires_app is true only when the task needs live data from, or an action in, one of the apps above.
  General knowledge, writing, math and reasoning tasks do not require an app.
- app_sets lists one entry per distinct need of the task. Each entry is a list of app ids that could
  serve that need, most suitable first. Only use ids from the list above.
- choice has exactly one entry per app_sets entry. Set it to true when the user should pick between
  the candidates (for example two mail services), false when every candidate should be used.
- When requires_app is false, app_sets and choice are empty lists.
- reasoning is one or two sentences explaining the decision.

Record the decision with the ` + analysisToolName + ` tool.`

const systemPrompt = `You classify user tasks for a tool-routing assistant. You never answer the task itself.`

const analysisToolName = "record_task_analysis"

// analysisSchema is the JSON-schema properties object of a TaskAnalysis.
var analysisSchema = map[string]any{
	"requires_app": map[string]any{
		"type":        "boolean",
		"description": "Whether the task needs at least one external app",
	},
	"reasoning": map[string]any{
		"type":        "string",
		"description": "Short justification of the decision",
	},
	"app_sets": map[string]any{
		"type":        "array",
		"description": "One list of candidate app ids per need of the task",
		"items": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"choice": map[string]any{
		"type":        "array",
		"description": "Per app set: true when the user picks among the candidates",
		"items":       map[string]any{"type": "boolean"},
	},
}

var analysisRequired = []string{"requires_app", "reasoning", "app_sets", "choice"}
