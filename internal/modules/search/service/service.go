package service

import (
	"fmt"
	"html"
	"log"
	"os"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"

	"github.com/studyloop/backend/internal/entity"
)

// SearchService keeps the Meilisearch indexes in sync with the catalog and
// issues scoped tenant tokens so clients query Meilisearch directly.
type SearchService interface {
	IndexCourse(course *entity.Course) error
	DeleteCourse(id string) error
	IndexResource(resource *entity.Resource) error
	DeleteResource(id string) error
	GenerateSearchToken(userRole string) (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &searchService{
		client:    client,
		masterKey: masterKey,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			log.Println("Found existing Meilisearch signing key")
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{"courses", "resources"},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created new Meilisearch signing key")
}

func (s *searchService) initIndexes() {
	courseFilterable := []string{"is_published", "instructor_id"}
	courseFilterableInterface := make([]any, len(courseFilterable))
	for i, v := range courseFilterable {
		courseFilterableInterface[i] = v
	}
	_, err := s.client.Index("courses").UpdateFilterableAttributes(&courseFilterableInterface)
	if err != nil {
		log.Printf("Failed to update courses filterable attributes: %v", err)
	}

	courseSortable := []string{"created_at"}
	_, err = s.client.Index("courses").UpdateSortableAttributes(&courseSortable)
	if err != nil {
		log.Printf("Failed to update courses sortable attributes: %v", err)
	}

	resourceFilterable := []string{"audience"}
	resourceFilterableInterface := make([]any, len(resourceFilterable))
	for i, v := range resourceFilterable {
		resourceFilterableInterface[i] = v
	}
	_, err = s.client.Index("resources").UpdateFilterableAttributes(&resourceFilterableInterface)
	if err != nil {
		log.Printf("Failed to update resources filterable attributes: %v", err)
	}

	resourceSortable := []string{"created_at"}
	_, err = s.client.Index("resources").UpdateSortableAttributes(&resourceSortable)
	if err != nil {
		log.Printf("Failed to update resources sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliCourseDoc struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	IsPublished  bool   `json:"is_published"`
	InstructorID string `json:"instructor_id"`
	Instructor   string `json:"instructor"`
	CreatedAt    int64  `json:"created_at"`
}

type meiliResourceDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Audience    string `json:"audience"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	cleanText = strings.Join(strings.Fields(cleanText), " ")

	return cleanText
}

func (s *searchService) IndexCourse(course *entity.Course) error {
	doc := meiliCourseDoc{
		ID:           course.ID.String(),
		Title:        course.Title,
		Slug:         course.Slug,
		Description:  s.cleanContentForIndex(course.Description),
		IsPublished:  course.IsPublished,
		InstructorID: course.InstructorID.String(),
		Instructor:   course.Instructor.Username,
		CreatedAt:    course.CreatedAt.Unix(),
	}

	task, err := s.client.Index("courses").AddDocuments([]meiliCourseDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed course %s, task id: %d", course.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteCourse(id string) error {
	_, err := s.client.Index("courses").DeleteDocument(id)
	return err
}

func (s *searchService) IndexResource(resource *entity.Resource) error {
	doc := meiliResourceDoc{
		ID:          resource.ID.String(),
		Title:       resource.Title,
		Description: s.cleanContentForIndex(resource.Description),
		Audience:    resource.Audience,
		CreatedAt:   resource.CreatedAt.Unix(),
	}

	task, err := s.client.Index("resources").AddDocuments([]meiliResourceDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed resource %s, task id: %d", resource.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteResource(id string) error {
	_, err := s.client.Index("resources").DeleteDocument(id)
	return err
}

func (s *searchService) GenerateSearchToken(userRole string) (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{}

	switch userRole {
	case entity.RoleAdmin:
		searchRules["courses"] = map[string]any{"filter": nil}
		searchRules["resources"] = map[string]any{"filter": nil}
	case entity.RoleInstructor:
		searchRules["courses"] = map[string]any{"filter": nil}
		searchRules["resources"] = map[string]any{
			"filter": "audience IN ['all', 'instructor']",
		}
	default:
		searchRules["courses"] = map[string]any{
			"filter": "is_published = true",
		}
		searchRules["resources"] = map[string]any{
			"filter": "audience IN ['all', 'student']",
		}
	}

	token, err := s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func strPtr(s string) *string {
	return &s
}
