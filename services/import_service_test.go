package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-service/importer"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeArchiver struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (a *fakeArchiver) Archive(_ context.Context, name, localPath string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	a.names = append(a.names, name)
	return "imports/" + name, a.err
}

type fakeInvalidator struct {
	mu       sync.Mutex
	entities []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, entity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities = append(f.entities, entity)
	return nil
}

type importFixture struct {
	svc        *ImportService
	staging    *importer.Staging
	categories *repository.MemoryCategoryRepository
	archiver   *fakeArchiver
	cache      *fakeInvalidator
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	staging, err := importer.NewStaging(t.TempDir())
	require.NoError(t, err)

	categories := repository.NewMemoryCategoryRepository(true)
	products := repository.NewMemoryProductRepository(true)
	f := &importFixture{
		staging:    staging,
		categories: categories,
		archiver:   &fakeArchiver{},
		cache:      &fakeInvalidator{},
	}
	f.svc = NewImportService(staging, map[string]ImportEntity{
		EntityCategory: {Schema: CategorySchema, Target: NewCategoryService(categories).ImportTarget(), Plural: "categories"},
		EntityProduct:  {Schema: ProductSchema, Target: NewProductService(products).ImportTarget(), Plural: "products"},
	}, WithArchiver(f.archiver), WithCacheInvalidator(f.cache))
	return f
}

func (f *importFixture) run(t *testing.T, entity string, format importer.Format, body string, dryRun bool) (importer.Summary, *importer.Upload) {
	t.Helper()
	up, err := f.svc.Stage(strings.NewReader(body), "upload."+string(format))
	require.NoError(t, err)
	sum, err := f.svc.Import(context.Background(), entity, format, up, importer.Options{DryRun: dryRun})
	require.NoError(t, err)
	return sum, up
}

func categoryOf(name string) *models.Category {
	return &models.Category{Name: name, Description: name}
}

func assertStagingEmpty(t *testing.T, s *importer.Staging) {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImportService_CSVSuccess(t *testing.T) {
	f := newImportFixture(t)
	require.NoError(t, f.categories.Create(context.Background(), categoryOf("Books")))

	csv := "category_name,category_description\nBooks,Paper\nToys,Fun\nGames,Play\n"
	sum, _ := f.run(t, EntityCategory, importer.FormatCSV, csv, false)

	require.True(t, sum.OK())
	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 1, sum.Skipped)
	assertStagingEmpty(t, f.staging)

	res := f.svc.Result(EntityCategory, importer.FormatCSV, sum, false)
	assert.Equal(t, "CSV data uploaded and categories created successfully", res.Message)
	assert.Equal(t, 2, res.InsertedCount)
	assert.Zero(t, res.Row)

	require.Len(t, f.archiver.names, 1)
	assert.True(t, strings.HasPrefix(f.archiver.names[0], "category/"))
	assert.Equal(t, []string{EntityCategory}, f.cache.entities)
}

func TestImportService_MissingField(t *testing.T) {
	f := newImportFixture(t)

	body := `[{"category_name":"A","category_description":"a"},{"category_name":"B"}]`
	sum, _ := f.run(t, EntityCategory, importer.FormatJSON, body, false)

	require.False(t, sum.OK())
	assert.True(t, IsClientError(sum.Err))
	assertStagingEmpty(t, f.staging)

	res := f.svc.Result(EntityCategory, importer.FormatJSON, sum, false)
	assert.Equal(t, "JSON must contain 'category_name' and 'category_description' for each item.", res.Message)
	assert.Equal(t, []string{"category_description"}, res.MissingFields)
	assert.Equal(t, 2, res.Row)
	assert.Equal(t, 1, res.InsertedCount)

	// The row committed before the abort stays.
	assert.Equal(t, 1, f.categories.Count("A"))
}

func TestImportService_CSVMissingColumnMessage(t *testing.T) {
	f := newImportFixture(t)

	sum, _ := f.run(t, EntityProduct, importer.FormatCSV, "product_name,product_price\nLamp,3\n", false)
	res := f.svc.Result(EntityProduct, importer.FormatCSV, sum, false)

	assert.Equal(t, "CSV must contain 'product_name', 'product_description', 'product_category', 'product_price' and 'product_stock'", res.Message)
	assert.Equal(t, 2, res.Row)
}

func TestImportService_NotArray(t *testing.T) {
	f := newImportFixture(t)

	sum, _ := f.run(t, EntityCategory, importer.FormatJSON, `{"category_name":"A"}`, false)
	require.False(t, sum.OK())
	assert.True(t, IsClientError(sum.Err))

	res := f.svc.Result(EntityCategory, importer.FormatJSON, sum, false)
	assert.Equal(t, "Invalid JSON format. Expected an array of objects.", res.Message)
	assert.Empty(t, f.cache.entities)
}

func TestImportService_MalformedJSON(t *testing.T) {
	f := newImportFixture(t)

	sum, _ := f.run(t, EntityCategory, importer.FormatJSON, `[{"category_name":`, false)
	res := f.svc.Result(EntityCategory, importer.FormatJSON, sum, false)
	assert.Equal(t, "Invalid JSON file", res.Message)
	assert.NotEmpty(t, res.Error)
}

func TestImportService_StoreFailureIsServerError(t *testing.T) {
	f := newImportFixture(t)

	csv := "product_name,product_description,product_category,product_price,product_stock\nLamp,Desk,Home,cheap,1\n"
	sum, _ := f.run(t, EntityProduct, importer.FormatCSV, csv, false)

	require.False(t, sum.OK())
	assert.False(t, IsClientError(sum.Err))
	res := f.svc.Result(EntityProduct, importer.FormatCSV, sum, false)
	assert.Equal(t, "Error processing the CSV file", res.Message)
	assert.Contains(t, res.Error, "product_price")
}

func TestImportService_DryRun(t *testing.T) {
	f := newImportFixture(t)
	require.NoError(t, f.categories.Create(context.Background(), categoryOf("Books")))

	csv := "category_name,category_description\nBooks,Paper\nToys,Fun\nToys,Dup\n"
	sum, _ := f.run(t, EntityCategory, importer.FormatCSV, csv, true)

	require.True(t, sum.OK())
	res := f.svc.Result(EntityCategory, importer.FormatCSV, sum, true)
	assert.Equal(t, "CSV file is valid: 1 new categories, 2 already present", res.Message)

	assert.Equal(t, 0, f.categories.Count("Toys"))
	assert.Empty(t, f.archiver.names)
	assert.Empty(t, f.cache.entities)
	assertStagingEmpty(t, f.staging)
}

func TestImportService_ArchiveFailureDoesNotAbort(t *testing.T) {
	f := newImportFixture(t)
	f.archiver.err = errors.New("bucket missing")

	sum, _ := f.run(t, EntityCategory, importer.FormatCSV, "category_name,category_description\nA,a\n", false)
	assert.True(t, sum.OK())
	assert.Equal(t, 1, sum.Inserted)
}

func TestImportService_UnknownEntityReleasesUpload(t *testing.T) {
	f := newImportFixture(t)

	up, err := f.svc.Stage(strings.NewReader("x"), "a.csv")
	require.NoError(t, err)
	_, err = f.svc.Import(context.Background(), "order", importer.FormatCSV, up, importer.Options{})
	assert.Error(t, err)
	assertStagingEmpty(t, f.staging)
}

func TestMissingFieldsMessage(t *testing.T) {
	assert.Equal(t, "CSV must contain 'a'", missingFieldsMessage(importer.FormatCSV, []string{"a"}))
	assert.Equal(t, "CSV must contain 'a', 'b' and 'c'", missingFieldsMessage(importer.FormatCSV, []string{"a", "b", "c"}))
	assert.Equal(t, "JSON must contain 'a' and 'b' for each item.", missingFieldsMessage(importer.FormatJSON, []string{"a", "b"}))
}

type failingMetrics struct{}

func (failingMetrics) RecordCount(context.Context, string, map[string]string) error {
	return errors.New("cloudwatch unreachable")
}

func (failingMetrics) RecordValue(context.Context, string, float64, map[string]string) error {
	return errors.New("cloudwatch unreachable")
}

func TestImportService_MetricsFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	staging, err := importer.NewStaging(t.TempDir())
	require.NoError(t, err)
	categories := repository.NewMemoryCategoryRepository(true)
	svc := NewImportService(staging, map[string]ImportEntity{
		EntityCategory: {Schema: CategorySchema, Target: NewCategoryService(categories).ImportTarget(), Plural: "categories"},
	}, WithMetrics(failingMetrics{}))

	up, err := svc.Stage(strings.NewReader("category_name,category_description\nA,a\n"), "cats.csv")
	require.NoError(t, err)
	sum, err := svc.Import(context.Background(), EntityCategory, importer.FormatCSV, up, importer.Options{})
	require.NoError(t, err)
	require.True(t, sum.OK())

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to record import metrics").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	entry := logs.FilterMessage("Failed to record import metrics").All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Contains(t, entry.ContextMap()["error"], "cloudwatch unreachable")
}
