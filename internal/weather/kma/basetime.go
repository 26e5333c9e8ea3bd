package kma

import (
	"fmt"
	"time"
)

// Seoul is the timezone KMA base dates and times are expressed in.
var Seoul = mustLoadLocation("Asia/Seoul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// BaseTime identifies a KMA forecast issuance.
type BaseTime struct {
	Date string // YYYYMMDD
	Time string // HHMM
}

// Nowcast observations are produced at HH:40 and published from HH:50.
const nowcastPublishMinute = 50

// Village forecasts are published about ten minutes after their issuance hour.
const villagePublishDelay = 10 * time.Minute

// villageIssueHours are the village forecast issuance hours.
var villageIssueHours = []int{2, 5, 8, 11, 14, 17, 20, 23}

// NowcastBaseTime returns the latest published ultra short-term nowcast
// issuance at or before now.
func NowcastBaseTime(now time.Time) BaseTime {
	t := now.In(Seoul)
	if t.Minute() < nowcastPublishMinute {
		t = t.Add(-time.Hour)
	}
	return BaseTime{Date: t.Format("20060102"), Time: fmt.Sprintf("%02d00", t.Hour())}
}

// VillageBaseTime returns the latest village forecast issuance published by
// now. Before 02:10 that is the previous day's 23:00 issuance.
func VillageBaseTime(now time.Time) BaseTime {
	t := now.In(Seoul).Add(-villagePublishDelay)
	issue := -1
	for _, h := range villageIssueHours {
		if t.Hour() >= h {
			issue = h
		}
	}
	if issue < 0 {
		t = t.AddDate(0, 0, -1)
		issue = villageIssueHours[len(villageIssueHours)-1]
	}
	return BaseTime{Date: t.Format("20060102"), Time: fmt.Sprintf("%02d00", issue)}
}
