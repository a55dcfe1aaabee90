// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const OfferingsIndexName = "offerings"

// defineOfferingsMapping returns the JSON string for the offerings index mapping.
func defineOfferingsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":           map[string]interface{}{"type": "text"},
				"description":     map[string]interface{}{"type": "text"},
				"type":            map[string]interface{}{"type": "keyword"},
				"category_id":     map[string]interface{}{"type": "keyword"},
				"category_slug":   map[string]interface{}{"type": "keyword"},
				"user_id":         map[string]interface{}{"type": "keyword"},
				"condition":       map[string]interface{}{"type": "keyword"},
				"skill_level":     map[string]interface{}{"type": "keyword"},
				"estimated_value": map[string]interface{}{"type": "double"},
				"is_approved":     map[string]interface{}{"type": "boolean"},
				"is_rejected":     map[string]interface{}{"type": "boolean"},
				"created_at":      map[string]interface{}{"type": "date"},
				"updated_at":      map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling offerings mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateOfferingsIndexIfNotExists creates the offerings index with the defined
// mapping if it does not already exist.
func CreateOfferingsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{OfferingsIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if offerings index exists", zap.Error(err))
		return fmt.Errorf("error checking if offerings index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Offerings index already exists", zap.String("index_name", OfferingsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Error checking if offerings index exists, unexpected status",
			zap.String("status", res.Status()),
			zap.String("index_name", OfferingsIndexName),
		)
		return fmt.Errorf("error checking if offerings index exists: status %s", res.Status())
	}

	mappingJSON, err := defineOfferingsMapping()
	if err != nil {
		log.Error("Failed to define offerings mapping", zap.Error(err))
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: OfferingsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating offerings index", zap.Error(err), zap.String("index_name", OfferingsIndexName))
		return fmt.Errorf("error creating offerings index %s: %w", OfferingsIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err != nil {
			log.Error("Failed to parse offerings index creation error response body", zap.Error(err), zap.String("status", createRes.Status()))
		} else {
			log.Error("Failed to create offerings index",
				zap.String("status", createRes.Status()),
				zap.Any("error_details", errorBody),
				zap.String("index_name", OfferingsIndexName),
			)
		}
		return fmt.Errorf("failed to create offerings index %s: status %s", OfferingsIndexName, createRes.Status())
	}

	log.Info("Offerings index created successfully", zap.String("index_name", OfferingsIndexName))
	return nil
}
