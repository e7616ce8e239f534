package report

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"time"

	"hosteldesk/internal/account"
	"hosteldesk/internal/attendance"
)

// StudentStatus is one student's resolved status for the report date.
type StudentStatus struct {
	RegNo         string `json:"regNo"`
	Name          string `json:"name"`
	Dept          string `json:"dept"`
	RoomNo        string `json:"roomNo"`
	Floor         string `json:"floor"`
	ParentMobile  string `json:"parentMobile"`
	StudentMobile string `json:"studentMobile"`
	Status        string `json:"status"`
}

// Counts buckets statuses for display. Absent merges stored absences with
// not_responded_absent.
type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Pending int `json:"pending"`
}

func (c *Counts) add(status string) {
	switch status {
	case attendance.StatusPresent:
		c.Present++
	case attendance.StatusAbsent, attendance.StatusNotResponded:
		c.Absent++
	default:
		c.Pending++
	}
}

// RoomGroup is the report section for one room.
type RoomGroup struct {
	Room     string          `json:"room"`
	Students []StudentStatus `json:"students"`
	Counts   Counts          `json:"counts"`
}

// Report is the full per-room attendance breakdown for a date.
type Report struct {
	Date   string      `json:"date"`
	Rooms  []RoomGroup `json:"rooms"`
	Totals Counts      `json:"totals"`
}

// Build computes the report for date from the given accounts and stored
// records. filter matches case-insensitively as a substring of regNo, name,
// room or dept. Status is time-dependent, so callers must rebuild per
// request rather than cache.
func Build(accounts []account.Account, records map[string]attendance.Record, date, filter string, now time.Time) Report {
	rep := Report{Date: date}
	needle := strings.ToLower(strings.TrimSpace(filter))

	byRoom := make(map[string][]StudentStatus)
	for _, a := range accounts {
		if needle != "" && !matches(a, needle) {
			continue
		}
		var stored *attendance.Record
		if rec, ok := records[a.ID]; ok {
			stored = &rec
		}
		byRoom[a.RoomNo] = append(byRoom[a.RoomNo], StudentStatus{
			RegNo:         a.RegNo,
			Name:          a.Name,
			Dept:          a.Dept,
			RoomNo:        a.RoomNo,
			Floor:         a.Floor,
			ParentMobile:  a.ParentMobile,
			StudentMobile: a.StudentMobile,
			Status:        attendance.Resolve(stored, date, now),
		})
	}

	rooms := make([]string, 0, len(byRoom))
	for room := range byRoom {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return naturalLess(rooms[i], rooms[j]) })

	for _, room := range rooms {
		group := RoomGroup{Room: room, Students: byRoom[room]}
		for _, st := range group.Students {
			group.Counts.add(st.Status)
			rep.Totals.add(st.Status)
		}
		rep.Rooms = append(rep.Rooms, group)
	}
	return rep
}

func matches(a account.Account, needle string) bool {
	for _, field := range []string{a.RegNo, a.Name, a.RoomNo, a.Dept} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// WriteCSV streams the report as CSV, one row per student.
func WriteCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"room", "regNo", "name", "dept", "floor", "parentMobile", "studentMobile", "status"}); err != nil {
		return err
	}
	for _, room := range rep.Rooms {
		for _, st := range room.Students {
			if err := cw.Write([]string{room.Room, st.RegNo, st.Name, st.Dept, st.Floor,
				st.ParentMobile, st.StudentMobile, st.Status}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
