package services

import (
	"context"
	"fmt"
	"time"

	"couples-workout-backend/internal/apperror"
	appcfg "couples-workout-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const avatarURLTTL = 5 * time.Minute

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// MediaService issues pre-signed S3 PUT URLs for avatar uploads and records
// the resulting public URL on the user profile.
type MediaService struct {
	userRepo UserStore
	s3Client *s3.Client
	s3Bucket string
	region   string
	endpoint string
}

// NewMediaService creates a new media service
func NewMediaService(userRepo UserStore, cfg appcfg.AWSConfig) (*MediaService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		userRepo: userRepo,
		s3Client: s3Client,
		s3Bucket: cfg.S3Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// AvatarUpload is the response for an avatar upload request
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	AvatarURL string `json:"avatar_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignAvatarUpload generates a pre-signed PUT URL for the user's avatar
// and stores the final URL on the profile. The client uploads directly to S3.
func (s *MediaService) PresignAvatarUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, apperror.Validation("content_type must be image/jpeg, image/png or image/webp")
	}

	s3Key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.New().String(), ext)

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(s3Key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarURLTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	avatarURL := s.objectURL(s3Key)
	if err := s.userRepo.UpdateAvatarURL(ctx, userID, avatarURL); err != nil {
		return nil, err
	}

	return &AvatarUpload{
		UploadURL: request.URL,
		AvatarURL: avatarURL,
		ExpiresIn: int(avatarURLTTL.Seconds()),
	}, nil
}

func (s *MediaService) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.s3Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Bucket, s.region, key)
}
