package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"taskhub/internal/domain"
)

// ObjectPutter is the subset of *minio.Client used for archiving.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Service interface {
	ArchiveProject(ctx context.Context, project *domain.Project, logs []domain.ActivityLog) (string, error)
}

type service struct {
	store  ObjectPutter
	bucket string
	now    func() time.Time
}

func NewService(store ObjectPutter, bucket string) Service {
	return &service{
		store:  store,
		bucket: bucket,
		now:    time.Now,
	}
}

type projectArchive struct {
	Project    *domain.Project      `json:"project"`
	Activity   []domain.ActivityLog `json:"activity"`
	ArchivedAt time.Time            `json:"archivedAt"`
}

// ArchiveProject stores the project snapshot and its activity trail as one JSON object
// and returns the object name. A nil store disables archiving.
func (s *service) ArchiveProject(ctx context.Context, project *domain.Project, logs []domain.ActivityLog) (string, error) {
	if s.store == nil {
		return "", nil
	}

	archivedAt := s.now().UTC()
	payload, err := json.Marshal(projectArchive{
		Project:    project,
		Activity:   logs,
		ArchivedAt: archivedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode archive: %w", err)
	}

	objectName := fmt.Sprintf("projects/%s/activity-%d.json", project.ID, archivedAt.Unix())
	_, err = s.store.PutObject(ctx, s.bucket, objectName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", domain.Dependency(err, "Failed to archive activity for project %s", project.ID)
	}
	return objectName, nil
}
