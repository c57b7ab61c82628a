// Package prompts contains the fixed text the agent sends to models or
// hands back to users.
//
// Prompt text is Go code rather than config files because it is program
// logic: the defaults are compiled in and covered by tests. A configured
// system prompt replaces BaseSystemPrompt; everything else here is fixed.
package prompts
