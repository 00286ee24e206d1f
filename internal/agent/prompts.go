package agent

// Prompt templates for the orchestration loops. PromptManager can
// override the persona; these are the built-in defaults.

const classifyPrompt = `Analyze the following user input and determine if it is a task that requires actions to complete.

USER INPUT: %s

- If it is just a question or conversation, respond with "NOT_A_TASK".
- If it is a task requiring actions, respond with "TASK" followed by a numbered list of clear, specific steps to complete it.

Example response for a task:
TASK
1. Search for information about Python memory management
2. Summarize the key points
3. Write the findings to a markdown document

Example response for a non-task:
NOT_A_TASK`

const stepSystemPrompt = `You are an autonomous task executor. You are given one step of a larger plan. Select exactly one tool call that accomplishes the step, or answer directly in text if no tool is needed.`

const stepPrompt = `Overall task: %s

Current step (%d of %d): %s
%s
Execute this step now.`

const memoryContextHeader = `
Results of prior steps:
%s`

const summaryPrompt = `Summarize the following step output in one or two sentences. Keep file paths, URLs and key figures. Output only the summary.

%s`

const conversationalSystemPrompt = `You are Yantra, a capable and concise assistant. Answer the user directly.`

// ReAct prompts, after Yao et al. 2023.

const reactSystemPrompt = `You solve tasks by interleaving reasoning with tool use. At each turn respond with exactly one Thought, then either one Action with its Action Input, or a Final Answer.

Format:
Thought: <your reasoning>
Action: <tool name>
Action Input: <JSON arguments>

or:
Thought: <your reasoning>
Final Answer: <answer for the user>`

const reactStepPrompt = `Task: %s

Available tools:
%s

Previous steps:
%s
What is your next step?`

const reactRecoveryHint = `[System: Please provide either an Action with Action Input, or a Final Answer]`

// SWE workflow prompts.

const sweSystemPrompt = `You are a software engineering agent. You analyze requirements, plan implementations, write code, and debug failures methodically.`

const sweUnderstandPrompt = `Analyze the following software engineering task and extract key information:

Task: %s

Provide:
TASK_TYPE: one of [code_generation, bug_fix, refactoring, testing, documentation, other]
LANGUAGE: primary programming language, or "not specified"
REQUIREMENTS: bullet list of specific requirements
COMPLEXITY: one of [simple, moderate, complex]`

const swePlanPrompt = `Create a step-by-step implementation plan for the following task. Each step must be specific and actionable. Number each step. Maximum 10 steps.

Task: %s

Analysis:
%s

PLAN:`

const sweImplementPrompt = `Overall task: %s

Analysis:
%s

Current implementation step: %s
%s
Carry out this step. When producing code, output a complete, runnable program.`

const sweDebugPrompt = `The following %s code failed verification.

Code:
%s

Failure:
%s

Fix the code. Output the complete corrected program in a single fenced code block.`
