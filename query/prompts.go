package query

// systemPrompt establishes the assistant persona for the generation call.
const systemPrompt = "You are an assistant that answers based on user messages and logical reasoning."

// userPromptTemplate embeds the retrieved context and the question, with an
// explicit instruction to reason before answering.
const userPromptTemplate = "Context:\n%s\n\nQuestion: %s\n\nAnswer with reasoning:"
