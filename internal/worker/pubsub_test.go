package worker

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		attrs   map[string]string
		want    RefreshMessage
		wantErr bool
	}{
		{
			name: "json body",
			data: `{"job_type":"forecast_refresh","location_ids":["seoul-forest"]}`,
			want: RefreshMessage{JobType: JobForecastRefresh, LocationIDs: []string{"seoul-forest"}},
		},
		{
			name:  "body wins over attributes",
			data:  `{"job_type":"health_check"}`,
			attrs: map[string]string{"job_type": "forecast_refresh"},
			want:  RefreshMessage{JobType: JobHealthCheck},
		},
		{
			name:  "attributes only",
			attrs: map[string]string{"job_type": "forecast_refresh", "location_ids": "anyang-art-park, ,seoul-forest"},
			want:  RefreshMessage{JobType: JobForecastRefresh, LocationIDs: []string{"anyang-art-park", "seoul-forest"}},
		},
		{name: "truncated json", data: `{"job_type":`, wantErr: true},
		{name: "no job type", data: `{"location_ids":["a"]}`, wantErr: true},
		{name: "empty", data: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeMessage([]byte(tt.data), tt.attrs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcess_Outcomes(t *testing.T) {
	job := NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{Targets: []RefreshTarget{{LocationID: "a", Point: Point{Lat: 37.5, Lon: 127}}}},
		Logger: zerolog.Nop(),
	})
	jobs := NewJobs(job, zerolog.Nop())

	tests := []struct {
		name  string
		data  string
		attrs map[string]string
		want  outcome
	}{
		{name: "forecast refresh", data: `{"job_type":"forecast_refresh"}`, want: ack},
		{name: "health check", data: `{"job_type":"health_check"}`, want: ack},
		{name: "scheduler attributes", attrs: map[string]string{"job_type": "forecast_refresh"}, want: ack},
		{name: "malformed", data: `{"job_type":`, want: ack},
		{name: "unknown job", data: `{"job_type":"provider_refresh"}`, want: ack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, process(context.Background(), jobs, []byte(tt.data), tt.attrs, zerolog.Nop()))
		})
	}
}

func TestProcess_NacksFailedJob(t *testing.T) {
	jobs := NewJobs(NewRefreshJob(RefreshJobConfig{Logger: zerolog.Nop()}), zerolog.Nop())

	assert.Equal(t, nack, process(context.Background(), jobs, []byte(`{"job_type":"health_check"}`), nil, zerolog.Nop()))
}
