package services

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionService labels food photos when the vision model cannot
// identify the plate. The returned labels feed the name lookup chain.
type RekognitionService struct {
	client *rekognition.Client
}

func NewRekognitionService(ctx context.Context, region string) (*RekognitionService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &RekognitionService{client: rekognition.NewFromConfig(cfg)}, nil
}

// Labels that describe the photo rather than the food in it.
var genericImageLabels = map[string]struct{}{
	"food":    {},
	"meal":    {},
	"dish":    {},
	"plate":   {},
	"cutlery": {},
	"table":   {},
	"person":  {},
	"human":   {},
}

// RecognizeFood returns the top food-like labels for a raw image.
func (r *RekognitionService) RecognizeFood(ctx context.Context, imageBytes []byte) ([]string, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: imageBytes},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		if _, generic := genericImageLabels[strings.ToLower(*l.Name)]; generic {
			continue
		}
		labels = append(labels, *l.Name)
	}
	return labels, nil
}
