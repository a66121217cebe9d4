package domain

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	DefaultRootFolder  = "assistant_versions"
	DefaultLinkExpiry  = 604800
	versionFormatUsage = "x.y.z example: 1.1.5"
)

var DefaultServices = []string{
	"asr_wav2vec2",
	"asr_whisper",
	"chat_gpt_turbo",
	"face_and_emotion_recognizer",
	"jobs",
	"hologram",
	"nlp_bert",
	"noise_suppression",
	"translation",
	"websocket_car_server",
	"question_answering",
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

var (
	ErrUnknownService          = errors.New("unknown service")
	ErrInvalidVersionFormat    = errors.New("invalid version format")
	ErrLocalFileNotFound       = errors.New("local file not found")
	ErrRemoteFileAlreadyExists = errors.New("remote file already exists")
	ErrInvalidExpiry           = errors.New("invalid expiry")
)

// BackendError wraps any failure reported by the object-storage backend.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

type UploadRequest struct {
	LocalPath        string
	AssistantVersion string
	ServiceName      string
	ServiceVersion   string
}

// UploadRecord is what the ledger keeps for every completed upload.
type UploadRecord struct {
	Key              string    `json:"key"`
	AssistantVersion string    `json:"assistant_version"`
	ServiceName      string    `json:"service_name"`
	ServiceVersion   string    `json:"service_version"`
	FileName         string    `json:"file_name"`
	Size             int64     `json:"size"`
	LocalPath        string    `json:"local_path"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

type DownloadLink struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// ValidateService reports ErrUnknownService, listing every allowed name,
// when name is not in allowed.
func ValidateService(name string, allowed []string) error {
	if slices.Contains(allowed, name) {
		return nil
	}
	return fmt.Errorf("%w %q, available services are: [%s]", ErrUnknownService, name, strings.Join(allowed, ", "))
}

func ValidateVersions(versions ...string) error {
	for _, v := range versions {
		if !versionPattern.MatchString(v) {
			return fmt.Errorf("%w %q, version format should be: %s", ErrInvalidVersionFormat, v, versionFormatUsage)
		}
	}
	return nil
}

func BuildKey(root, assistantVersion, serviceName, serviceVersion, fileName string) string {
	return strings.Join([]string{root, assistantVersion, serviceName, serviceVersion, fileName}, "/")
}
