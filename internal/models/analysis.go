package models

// AnalysisResult is the externally computed feedback analysis for one faculty member and course.
type AnalysisResult struct {
	StaffID        string             `json:"staff_id"`
	CourseCode     string             `json:"course_code"`
	CourseName     string             `json:"course_name"`
	TotalResponses int                `json:"total_responses"`
	Analysis       map[string]Section `json:"analysis"`
	Comments       *CommentsSummary   `json:"comments,omitempty"`
}

type Section struct {
	SectionName string                    `json:"section_name"`
	Questions   map[string]QuestionResult `json:"questions"`
}

type QuestionResult struct {
	Question       string        `json:"question"`
	TotalResponses int           `json:"total_responses"`
	Options        []OptionCount `json:"options"`
}

// OptionCount is one response choice. Value is the Likert code: 1 bad, 2 neutral, 3 good.
type OptionCount struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
	Count int    `json:"count"`
}

type CommentsSummary struct {
	HasComments   bool `json:"has_comments"`
	TotalComments int  `json:"total_comments"`
}

// AnalysisRequest identifies the faculty/course whose analysis is loaded
type AnalysisRequest struct {
	Filter
	StaffID string `json:"staff_id" form:"staff_id" validate:"required"`
}
