package studio

import (
	"testing"

	"google.golang.org/genai"
)

func TestVideoFromOperation(t *testing.T) {
	generated := &genai.Video{MIMEType: "video/mp4", VideoBytes: []byte("mp4")}

	tests := []struct {
		name       string
		op         *genai.GenerateVideosOperation
		wantStatus TaskStatus
		wantVideo  *genai.Video
	}{
		{
			name:       "still running",
			op:         &genai.GenerateVideosOperation{Name: "op-1"},
			wantStatus: TaskStatusPending,
		},
		{
			name:       "done without response",
			op:         &genai.GenerateVideosOperation{Name: "op-1", Done: true},
			wantStatus: TaskStatusFailed,
		},
		{
			name: "done with empty result list",
			op: &genai.GenerateVideosOperation{
				Name:     "op-1",
				Done:     true,
				Response: &genai.GenerateVideosResponse{},
			},
			wantStatus: TaskStatusFailed,
		},
		{
			name: "done with nil video slot",
			op: &genai.GenerateVideosOperation{
				Name: "op-1",
				Done: true,
				Response: &genai.GenerateVideosResponse{
					GeneratedVideos: []*genai.GeneratedVideo{{}},
				},
			},
			wantStatus: TaskStatusFailed,
		},
		{
			name: "done with video",
			op: &genai.GenerateVideosOperation{
				Name: "op-1",
				Done: true,
				Response: &genai.GenerateVideosResponse{
					GeneratedVideos: []*genai.GeneratedVideo{{Video: generated}},
				},
			},
			wantStatus: TaskStatusSuccess,
			wantVideo:  generated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video, status := videoFromOperation(tt.op)
			if status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", status, tt.wantStatus)
			}
			if video != tt.wantVideo {
				t.Fatalf("video = %v, want %v", video, tt.wantVideo)
			}
		})
	}
}
