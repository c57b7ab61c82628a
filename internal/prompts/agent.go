package prompts

// MaxStepsFallback is the answer returned when the step budget runs out
// before the model produces a final answer.
const MaxStepsFallback = "Reached max steps without a final answer."
