package models

type Progress struct {
	Total     int
	Completed int
	Percent   float64
}

// ProgressOf counts completed tasks; Percent is 0 for an empty project.
func ProgressOf(tasks []Task) Progress {
	pr := Progress{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed() {
			pr.Completed++
		}
	}
	if pr.Total > 0 {
		pr.Percent = float64(pr.Completed) * 100.0 / float64(pr.Total)
	}
	return pr
}
