package bill

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/bill-extractor/internal/document"
	"github.com/zombor/bill-extractor/internal/extraction"
)

// mockDB is a mock implementation of DB
type mockDB struct {
	extractions map[string]*Extraction
	saveErr     error
	getErr      error
	listErr     error
	deleteErr   error
}

func newMockDB() *mockDB {
	return &mockDB{
		extractions: make(map[string]*Extraction),
	}
}

func (m *mockDB) SaveExtraction(record *Extraction) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.extractions[record.ID] = record
	return nil
}

func (m *mockDB) GetExtraction(id string) (*Extraction, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	record, ok := m.extractions[id]
	if !ok {
		return nil, errors.New("extraction not found")
	}
	return record, nil
}

func (m *mockDB) ListExtractions() ([]*Extraction, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	records := make([]*Extraction, 0, len(m.extractions))
	for _, r := range m.extractions {
		records = append(records, r)
	}
	return records, nil
}

func (m *mockDB) DeleteExtraction(id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.extractions[id]; !ok {
		return errors.New("extraction not found")
	}
	delete(m.extractions, id)
	return nil
}

func (m *mockDB) Close() error {
	return nil
}

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	files     map[string][]byte
	saveErr   error
	getErr    error
	deleteErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		files: make(map[string][]byte),
	}
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockStorage) Get(path string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Delete(path string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.files[path]; !ok {
		return errors.New("file not found")
	}
	delete(m.files, path)
	return nil
}

// mockReader is a mock implementation of DocumentReader
type mockReader struct {
	pages   []document.PageImage
	raw     []byte
	readErr error
}

func newMockReader() *mockReader {
	return &mockReader{
		pages: []document.PageImage{
			{PageNo: "1", PNG: []byte("fake png page 1")},
			{PageNo: "2", PNG: []byte("fake png page 2")},
		},
		raw: []byte("fake document"),
	}
}

func (m *mockReader) ReadPages(ctx context.Context, url string) ([]document.PageImage, []byte, error) {
	if m.readErr != nil {
		return nil, nil, m.readErr
	}
	return m.pages, m.raw, nil
}

// mockExtractor is a mock implementation of extraction.Extractor
type mockExtractor struct {
	results    map[string]*extraction.PageResult
	extractErr error
	failPages  map[string]error
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{
		results: map[string]*extraction.PageResult{
			"1": {
				Page: extraction.Page{
					PageNo:   "1",
					PageType: "Bill Detail",
					Items: []extraction.Item{
						{Name: "Room Rent", Amount: 2000.0, Rate: 1000.0, Quantity: 2.0},
						{Name: "Total:", Amount: 2000.0},
					},
				},
				Usage: extraction.TokenUsage{TotalTokens: 100, InputTokens: 80, OutputTokens: 20},
			},
			"2": {
				Page: extraction.Page{
					PageNo:   "2",
					PageType: "Final Bill",
					Items: []extraction.Item{
						{Name: "Room Rent", Amount: 2000.0, Rate: 1000.0, Quantity: 2.0},
						{Name: "Consultation Fee", Amount: 800.0, Rate: 800.0, Quantity: 1.0},
					},
				},
				Usage: extraction.TokenUsage{TotalTokens: 150, InputTokens: 100, OutputTokens: 50},
			},
		},
		failPages: make(map[string]error),
	}
}

func (m *mockExtractor) ExtractPage(ctx context.Context, pageNo string, pngData []byte) (*extraction.PageResult, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	if err, ok := m.failPages[pageNo]; ok {
		return nil, err
	}
	result, ok := m.results[pageNo]
	if !ok {
		return nil, errors.New("unexpected page")
	}
	return result, nil
}

func (m *mockExtractor) Close() error {
	return nil
}

// mockIDGenerator is a mock implementation of IDGenerator
type mockIDGenerator struct {
	id string
}

func (m *mockIDGenerator) Generate() string {
	return m.id
}

// mockTimeSource is a mock implementation of TimeSource
type mockTimeSource struct {
	now time.Time
}

func (m *mockTimeSource) Now() time.Time {
	return m.now
}

var _ = Describe("Service", func() {
	var (
		db        *mockDB
		storage   *mockStorage
		reader    *mockReader
		extractor *mockExtractor
		idGen     *mockIDGenerator
		timeSrc   *mockTimeSource
		service   *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		reader = newMockReader()
		extractor = newMockExtractor()
		idGen = &mockIDGenerator{id: "test-id-123"}
		timeSrc = &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, reader, extractor, storage, NewEngine(DefaultConfig()), 0, idGen, timeSrc)
	})

	Describe("ProcessDocument", func() {
		var (
			record *Extraction
			err    error
		)

		JustBeforeEach(func() {
			record, err = service.ProcessDocument(context.Background(), "http://example.com/bill.pdf")
		})

		When("processing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should set the record ID and timestamps", func() {
				Expect(record.ID).To(Equal("test-id-123"))
				Expect(record.CreatedAt).To(Equal(timeSrc.now))
			})

			It("should record the document URL and page count", func() {
				Expect(record.DocumentURL).To(Equal("http://example.com/bill.pdf"))
				Expect(record.PageCount).To(Equal(2))
			})

			It("should drop the total line and the cross-page duplicate", func() {
				Expect(record.Data.TotalItemCount).To(Equal(2))
			})

			It("should reconcile the total amount", func() {
				Expect(record.Data.TotalAmount).To(Equal(2800.0))
			})

			It("should accumulate token usage across pages", func() {
				Expect(record.TokenUsage.TotalTokens).To(Equal(250))
				Expect(record.TokenUsage.InputTokens).To(Equal(180))
				Expect(record.TokenUsage.OutputTokens).To(Equal(70))
			})

			It("should archive the source document", func() {
				Expect(storage.files).To(HaveKey("test-id-123_document"))
			})

			It("should save the record to the database", func() {
				saved, getErr := db.GetExtraction("test-id-123")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id-123"))
			})
		})

		When("one page fails to extract", func() {
			BeforeEach(func() {
				extractor.failPages["2"] = errors.New("model timeout")
			})

			It("should not fail the run", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should keep the failed page with no items", func() {
				Expect(record.Data.Pages).To(HaveLen(2))
				Expect(record.Data.Pages[1].Items).To(BeEmpty())
			})

			It("should still reconcile the surviving pages", func() {
				Expect(record.Data.TotalItemCount).To(Equal(1))
				Expect(record.Data.TotalAmount).To(Equal(2000.0))
			})
		})

		When("the document cannot be read", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("download failed")
				reader.readErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})

			It("should classify it as a document failure", func() {
				Expect(errors.Is(err, ErrBadDocument)).To(BeTrue())
			})

			It("should not save anything", func() {
				Expect(db.extractions).To(BeEmpty())
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("the document produces no pages", func() {
			BeforeEach(func() {
				reader.pages = []document.PageImage{}
			})

			It("returns a document failure", func() {
				Expect(err).To(MatchError(ErrBadDocument))
			})
		})

		When("storage save fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("storage error")
				storage.saveErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})
		})

		When("database save fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("db error")
				db.saveErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})

			It("should not classify it as a document failure", func() {
				Expect(errors.Is(err, ErrBadDocument)).To(BeFalse())
			})

			It("should clean up the archived document", func() {
				Expect(storage.files).To(BeEmpty())
			})
		})
	})

	Describe("GetExtraction", func() {
		When("the record exists", func() {
			BeforeEach(func() {
				db.extractions["id1"] = &Extraction{ID: "id1"}
			})

			It("should return it", func() {
				record, err := service.GetExtraction("id1")
				Expect(err).NotTo(HaveOccurred())
				Expect(record.ID).To(Equal("id1"))
			})
		})

		When("the record does not exist", func() {
			It("returns an error", func() {
				_, err := service.GetExtraction("missing")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("DeleteExtraction", func() {
		BeforeEach(func() {
			db.extractions["id1"] = &Extraction{ID: "id1", Filename: "id1_document"}
			storage.files["id1_document"] = []byte("doc")
		})

		It("should delete the record and its document", func() {
			Expect(service.DeleteExtraction("id1")).To(Succeed())
			Expect(db.extractions).To(BeEmpty())
			Expect(storage.files).To(BeEmpty())
		})

		When("the file delete fails", func() {
			BeforeEach(func() {
				storage.deleteErr = errors.New("fs error")
			})

			It("should still delete the record", func() {
				Expect(service.DeleteExtraction("id1")).To(Succeed())
				Expect(db.extractions).To(BeEmpty())
			})
		})
	})

	Describe("GetExtractionDocument", func() {
		BeforeEach(func() {
			db.extractions["id1"] = &Extraction{ID: "id1", Filename: "id1_document"}
			storage.files["id1_document"] = []byte("doc bytes")
		})

		It("should return the archived bytes", func() {
			data, err := service.GetExtractionDocument("id1")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("doc bytes")))
		})
	})
})
