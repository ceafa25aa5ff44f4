package weaviate

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/iamabhishek-n/vectra-go/pkg/vectorstore"
)

// parseGetResponse walks a GraphQL Get{} response shaped by SimilaritySearch
// or HybridSearch and extracts the stored content/metadata plus whichever
// _additional score field the query requested (certainty or score).
func parseGetResponse(resp *models.GraphQLResponse, className string) ([]vectorstore.RetrievedDoc, error) {
	if resp == nil || resp.Data == nil {
		return nil, nil
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate: graphql error: %v", resp.Errors[0].Message)
	}

	getField, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	rawRows, ok := getField[className].([]any)
	if !ok {
		return nil, nil
	}

	docs := make([]vectorstore.RetrievedDoc, 0, len(rawRows))
	for _, raw := range rawRows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		content, _ := row["content"].(string)

		metadata := map[string]any{}
		if metaJSON, ok := row["metadataJSON"].(string); ok && metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &metadata)
		}

		var score float64
		if additional, ok := row["_additional"].(map[string]any); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				score = certainty
			} else if hybridScore, ok := additional["score"].(string); ok {
				fmt.Sscanf(hybridScore, "%f", &score)
			}
		}

		docs = append(docs, vectorstore.RetrievedDoc{
			Content:  content,
			Metadata: metadata,
			Score:    score,
		})
	}
	return docs, nil
}
