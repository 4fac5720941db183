package forecast

import (
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func ts(s string) time.Time {
	t, err := time.Parse(models.PointTimeLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// threeHourSeries builds a provider-style series starting at start with n points 3h apart.
func threeHourSeries(start string, n int) models.ForecastSeries {
	t0 := ts(start)
	pts := make([]models.ForecastPoint, n)
	for i := range pts {
		pts[i] = models.ForecastPoint{
			Timestamp:   t0.Add(time.Duration(3*i) * time.Hour),
			Temperature: float64(i),
			Humidity:    50 + i%10,
			WindSpeed:   float64(i) / 10,
		}
	}
	return models.ForecastSeries{City: "London", Points: pts}
}

func TestDailyTable_PicksNoon(t *testing.T) {
	// 40 points starting at 15:00 on day one: day one has no noon, later days do.
	series := threeHourSeries("2024-03-01 15:00:00", 40)
	got := NewAggregator().DailyTable(series)

	if len(got) != 5 {
		t.Fatalf("DailyTable() returned %d days, want 5", len(got))
	}
	wantDays := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"}
	for i, d := range got {
		if d.DateLabel() != wantDays[i] {
			t.Errorf("day %d = %s, want %s", i, d.DateLabel(), wantDays[i])
		}
	}
	// Day two noon is 21h after the first point: index 7.
	if got[1].Temperature != 7 {
		t.Errorf("day 2 temperature = %v, want 7 (the 12:00 sample)", got[1].Temperature)
	}
	if got[1].Humidity != 57 || got[1].WindSpeed != 0.7 {
		t.Errorf("day 2 = %+v, want humidity 57 wind 0.7", got[1])
	}
	// Day one only has 15:00, 18:00, 21:00; 15:00 is nearest noon.
	if got[0].Temperature != 0 {
		t.Errorf("day 1 temperature = %v, want 0 (the 15:00 sample)", got[0].Temperature)
	}
}

func TestDailyTable_TieGoesToEarlier(t *testing.T) {
	series := models.ForecastSeries{Points: []models.ForecastPoint{
		{Timestamp: ts("2024-03-01 10:00:00"), Temperature: 1},
		{Timestamp: ts("2024-03-01 14:00:00"), Temperature: 2},
	}}
	got := NewAggregator().DailyTable(series)
	if len(got) != 1 || got[0].Temperature != 1 {
		t.Errorf("DailyTable() = %+v, want the 10:00 sample", got)
	}
}

func TestDailyTable_CustomReference(t *testing.T) {
	series := threeHourSeries("2024-03-01 00:00:00", 8)
	agg := Aggregator{Reference: 17 * time.Hour, MaxDays: 5}
	got := agg.DailyTable(series)
	if len(got) != 1 {
		t.Fatalf("DailyTable() returned %d days, want 1", len(got))
	}
	// 15:00 and 18:00 are candidates; 18:00 is one hour away.
	if got[0].Temperature != 6 {
		t.Errorf("temperature = %v, want 6 (the 18:00 sample)", got[0].Temperature)
	}
}

func TestDailyTable_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		series  models.ForecastSeries
		maxDays int
		want    int
	}{
		{"empty", models.ForecastSeries{}, 5, 0},
		{"one day", threeHourSeries("2024-03-01 00:00:00", 8), 5, 1},
		{"three days", threeHourSeries("2024-03-01 00:00:00", 24), 5, 3},
		{"six days capped", threeHourSeries("2024-03-01 00:00:00", 48), 5, 5},
		{"cap of two", threeHourSeries("2024-03-01 00:00:00", 48), 2, 2},
		{"zero cap uses default", threeHourSeries("2024-03-01 00:00:00", 48), 0, 5},
		{"zero timestamps skipped", models.ForecastSeries{Points: []models.ForecastPoint{{Temperature: 3}}}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregator{Reference: DefaultReference, MaxDays: tt.maxDays}.DailyTable(tt.series)
			if got == nil {
				t.Fatal("DailyTable() = nil, want non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("DailyTable() returned %d days, want %d", len(got), tt.want)
			}
			distinct := make(map[string]bool)
			for _, p := range tt.series.Points {
				if !p.Timestamp.IsZero() {
					distinct[p.Timestamp.Format(models.DayLayout)] = true
				}
			}
			if len(got) > len(distinct) {
				t.Errorf("DailyTable() returned %d days for %d distinct days", len(got), len(distinct))
			}
			for i := 1; i < len(got); i++ {
				if !got[i-1].Day.Before(got[i].Day) {
					t.Errorf("days not strictly ascending at %d: %v, %v", i, got[i-1].Day, got[i].Day)
				}
			}
		})
	}
}

func TestDailyTable_UnorderedInput(t *testing.T) {
	series := models.ForecastSeries{Points: []models.ForecastPoint{
		{Timestamp: ts("2024-03-03 12:00:00"), Temperature: 3},
		{Timestamp: ts("2024-03-01 12:00:00"), Temperature: 1},
		{Timestamp: ts("2024-03-02 12:00:00"), Temperature: 2},
	}}
	got := NewAggregator().DailyTable(series)
	for i, want := range []float64{1, 2, 3} {
		if got[i].Temperature != want {
			t.Errorf("day %d temperature = %v, want %v", i, got[i].Temperature, want)
		}
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"12:00", 12 * time.Hour, false},
		{"00:00", 0, false},
		{"09:30", 9*time.Hour + 30*time.Minute, false},
		{"23:59", 23*time.Hour + 59*time.Minute, false},
		{"noon", 0, true},
		{"25:00", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseReference(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseReference(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseReference(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
