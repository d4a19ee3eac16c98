package classify

// labelPrompt is the few-shot prompt for the model pass. The model sees
// only the sentences the heuristics could not decide, numbered from 1, and
// must answer one "<number>: <letter>" line per sentence.
const labelPrompt = `You label sentences from the transcript of a spoken video.
For each numbered sentence below, answer with exactly one letter:
Q - the sentence asks a question
A - the sentence answers or directly follows up on a question
O - anything else (filler, narration, tangents)

Reply with one line per sentence in the form "<number>: <letter>".
Do not add any other text.

Examples:
"So how does the rate limiter actually work?" -> Q
"It refills both buckets continuously and debits them per call." -> A
"Anyway, let's grab some coffee first." -> O

Sentences:
`
