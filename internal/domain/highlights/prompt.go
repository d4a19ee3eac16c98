package highlights

// scorePrompt asks for one integer rating per excerpt, in order. Parsing
// is deliberately tolerant; see parseScores.
const scorePrompt = `You rate excerpts from the transcript of a spoken video as
potential highlight clips. A great highlight is a clear question followed by
a complete, self-contained, engaging answer.

Rate each numbered excerpt from 1 (dull, incomplete) to 5 (excellent
highlight). Reply with the ratings only, comma-separated, in the same order
as the excerpts. Example reply: 3, 1, 5

Excerpts:
`
