package prompts

// ProtocolInstructions teaches the model the tool-call marker format.
const ProtocolInstructions = `You can execute real tools and commands. When you need to use a tool, format your response like this:

TOOL_CALL: command_name
PARAMETERS: parameter1=value1, parameter2=value2
REASONING: Why you need this tool

Available tool patterns:
- TOOL_CALL: curl
  PARAMETERS: url=https://example.com, output_file={{workdir}}/content.html
  REASONING: Fetch web content

- TOOL_CALL: python3
  PARAMETERS: script={{workdir}}/process.py, args=input.txt output.txt
  REASONING: Process downloaded content

- TOOL_CALL: cat
  PARAMETERS: file={{workdir}}/file.txt
  REASONING: Read file contents

Components listed under AVAILABLE COMPONENTS are called the same way, using their identifier
as the command and passing their inputs as parameters.`

func init() {
	DefaultRegistry().Register(&Prompt{
		ID:      IterationID,
		Content: `You are acting as the SystemAgent from this specification:

{{system_spec}}

EXECUTION CONTEXT (Iteration {{iteration}}):
- Goal: {{goal}}
- Workspace: {{workspace}}
- State directory: {{state_dir}}
- Container: {{container}}
- Current state: {{current_state}}

ENVIRONMENT:
{{environment}}

AVAILABLE CLI TOOLS:
{{cli_tools}}

AVAILABLE COMPONENTS:
{{components}}

WORKSPACE STATE FILES:
{{workspace_files}}

FILES CHANGED SINCE LAST ITERATION:
{{changed_files}}

EXECUTION HISTORY:
{{history}}

TOOL RESULTS FROM PREVIOUS STEPS:
{{tool_results}}

INSTRUCTIONS:
` + ProtocolInstructions + `

Continue execution according to the SystemAgent specification. If you need to execute tools, use the TOOL_CALL format above.
When the goal is achieved, say "Task completed" and summarize what was produced.`,
	})
}
