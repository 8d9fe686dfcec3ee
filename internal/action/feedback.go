package action

// Feedback is the tutor's response to a processed action.
// Exactly one of the fields is set.
type Feedback struct {
	Attempt *AttemptResponse `json:"attempt,omitempty"`
	Hint    *HintResponse    `json:"hint,omitempty"`
}

// AttemptResponse reports the correctness of an Attempt or Guess.
type AttemptResponse struct {
	Kind    Kind `json:"kind"`
	Correct bool `json:"correct"`
}

// HintResponse reports the hint just delivered.
type HintResponse struct {
	HintNum   int    `json:"hint_num"`
	Remaining int    `json:"remaining"`
	Text      string `json:"text"`
}

// IsZero reports whether the feedback carries no response.
func (f Feedback) IsZero() bool {
	return f.Attempt == nil && f.Hint == nil
}
