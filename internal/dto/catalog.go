package dto

// MarksOptionsResponse lists the distinct max-marks values published for a school.
type MarksOptionsResponse struct {
	SchoolID string `json:"schoolId"`
	Options  []int  `json:"options"`
}

// SubjectsResponse lists the subjects applicable to a standard.
type SubjectsResponse struct {
	SchoolID string   `json:"schoolId"`
	Standard int      `json:"standard"`
	Subjects []string `json:"subjects"`
}
