package upstream

// apiResponse models the academic-records API's student timetable payload.
type apiResponse struct {
	Code int `json:"code"`
	Data struct {
		Name    string      `json:"name"`
		Courses []apiCourse `json:"courses"`
	} `json:"data"`
}

// apiCourse is one weekly course occurrence as the upstream reports it.
// Classroom and teacher may be JSON null, absent, or the legacy literal
// "None" when unassigned; all three decode to a nil pointer here so that
// nothing downstream ever compares sentinel strings.
type apiCourse struct {
	CID       string  `json:"cid"`
	Name      string  `json:"name"`
	Classroom *string `json:"classroom"`
	Teacher   *string `json:"teacher"`
	Day       int     `json:"day"`
	Time      int     `json:"time"`
	Week      []int   `json:"week"`
	WeekText  string  `json:"week_string"`
}
