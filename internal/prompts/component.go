package prompts

func init() {
	DefaultRegistry().Register(&Prompt{
		ID:      ComponentID,
		Content: `You are executing the component "{{display_name}}" (id: {{component_id}}, type: {{category}}).
Its specification ({{spec_path}}) follows verbatim:

{{spec}}

DECLARED TOOLS: {{declared_tools}}

INPUTS:
{{inputs}}

ENVIRONMENT:
{{environment}}

AVAILABLE BUILT-IN TOOLS:
{{adapters}}

NESTING: depth {{depth}} of at most {{max_depth}}. Calling other components counts towards this limit.

INSTRUCTIONS:
` + ProtocolInstructions + `

Perform the component's behaviour for the inputs above. Finish your reply with a fenced result block:

` + "```result" + `
{"success": true, "output": "what the component produced", "metadata": {}}
` + "```" + `

Set "success" to false and add an "error" string if the component could not do its job.`,
	})
}
