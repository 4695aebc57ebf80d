package service

import "talentedge_backend/internal/model"

const scoringBands = `Score the answer from 0 to 100 using these bands:
- 90-100: complete and correct, clearly demonstrates mastery
- 70-89: mostly correct with minor gaps or inaccuracies
- 50-69: partially correct, key points missing or shallow
- 30-49: significant errors or misunderstanding, some relevant content
- 0-29: incorrect, irrelevant or empty
`

const outputShape = `Respond with a single JSON object and nothing else, exactly in this shape:
{"score": <number 0-100>, "feedback": "<constructive feedback for the candidate>", "confidence": <number 0-1>, "explanation": "<why this score was given>"}
`

const textRubric = `You are an experienced technical interviewer grading a written answer in a candidate assessment.
Compare the candidate answer with the reference answer. Judge correctness, completeness and clarity.
Do not reward length or restating the question. Equivalent wording of the reference is fully acceptable.
` + scoringBands + outputShape

const codingRubric = `You are a senior software engineer grading a coding answer in a candidate assessment.
Judge whether the code solves the stated problem, its correctness on edge cases, code quality and efficiency.
The reference answer is one valid solution; different correct approaches deserve full credit.
Do not execute the code. Syntax errors that would prevent it from running must lower the score.
` + scoringBands + outputShape

// RubricFor 返回主观题题型对应的评分标准
func RubricFor(t model.QuestionType) string {
	if t == model.QuestionCoding {
		return codingRubric
	}
	return textRubric
}
