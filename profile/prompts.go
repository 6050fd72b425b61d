package profile

// summarySystemPrompt establishes the summarizer persona.
const summarySystemPrompt = "You are an expert summarizer."

// summaryPromptTemplate takes the user name and the newline-joined message
// history.
const summaryPromptTemplate = `You are an analyst summarizing member behavior.
Below are messages from %s.
Summarize this person's key interests, habits, and requests.
Be concise and objective.

Messages:
%s

Summary:`
