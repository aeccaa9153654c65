// Package report renders joined time records as a grouped, human-readable
// summary: day, then person, then project, then ticket, with hour totals.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/TomDunham/fogharvest/pkg/models"
)

// Group is a run of records sharing one key.
type Group struct {
	Key     string
	Records []models.TimeRecord
}

// SortGroup stably sorts records by key and collects runs of equal keys.
// The join emits records in interval order; grouping for display is a
// separate transform, applied per dimension as needed.
func SortGroup(records []models.TimeRecord, key func(models.TimeRecord) string) []Group {
	sorted := make([]models.TimeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) < key(sorted[j])
	})

	var groups []Group
	for _, r := range sorted {
		k := key(r)
		if len(groups) == 0 || groups[len(groups)-1].Key != k {
			groups = append(groups, Group{Key: k})
		}
		groups[len(groups)-1].Records = append(groups[len(groups)-1].Records, r)
	}
	return groups
}

func sumHours(records []models.TimeRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.Hours()
	}
	return total
}

// Render writes the nested day/person/project/ticket summary to w.
func Render(w io.Writer, records []models.TimeRecord) error {
	days := SortGroup(records, func(r models.TimeRecord) string {
		return r.Start.Format("2006-01-02")
	})
	for _, day := range days {
		date := day.Records[0].Start.Format("02 Jan 2006")
		if _, err := fmt.Fprintf(w, "%s\n", date); err != nil {
			return err
		}
		for _, person := range SortGroup(day.Records, func(r models.TimeRecord) string { return r.Email }) {
			fmt.Fprintf(w, "  %s\n", person.Key)
			for _, project := range SortGroup(person.Records, func(r models.TimeRecord) string { return r.ProjectName }) {
				fmt.Fprintf(w, "    %s\n", project.Key)
				for _, ticket := range SortGroup(project.Records, func(r models.TimeRecord) string { return r.Title }) {
					fmt.Fprintf(w, "      %-50s %4.2f\n", ticket.Key, sumHours(ticket.Records))
				}
				fmt.Fprintf(w, "      %-50s %4.2f\n", "total", sumHours(project.Records))
			}
		}
	}
	return nil
}
