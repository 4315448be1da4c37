package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedVideo is one entry in a catalog seed file.
type SeedVideo struct {
	Title        string `yaml:"title"`
	VideoKey     string `yaml:"video_key"`
	SubtitleKey  string `yaml:"subtitle_key"`
	ThumbnailKey string `yaml:"thumbnail_key"`
}

type seedFile struct {
	Videos []SeedVideo `yaml:"videos"`
}

// LoadSeedFile reads a YAML catalog seed file.
func LoadSeedFile(path string) ([]SeedVideo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, video := range file.Videos {
		if video.Title == "" {
			return nil, fmt.Errorf("seed video %d: missing title", i)
		}
		if video.VideoKey == "" {
			return nil, fmt.Errorf("seed video %q: missing video_key", video.Title)
		}
		if video.SubtitleKey == "" {
			return nil, fmt.Errorf("seed video %q: missing subtitle_key", video.Title)
		}
	}
	return file.Videos, nil
}

// Import inserts seed videos through the repository and returns how many
// were created.
func Import(ctx context.Context, repo VideoRepository, seeds []SeedVideo) (int, error) {
	for i, seed := range seeds {
		video := seed.toVideo()
		if err := repo.Create(ctx, &video); err != nil {
			return i, fmt.Errorf("import video %q: %w", seed.Title, err)
		}
	}
	return len(seeds), nil
}

func (s SeedVideo) toVideo() Video {
	video := Video{
		Title:       s.Title,
		VideoKey:    s.VideoKey,
		SubtitleKey: s.SubtitleKey,
	}
	if s.ThumbnailKey != "" {
		video.ThumbnailKey.String = s.ThumbnailKey
		video.ThumbnailKey.Valid = true
	}
	return video
}
