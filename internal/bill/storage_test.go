package bill

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "documents"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("should write the file and return its name", func() {
			name, err := storage.Save("abc_document", []byte("data"))
			Expect(err).NotTo(HaveOccurred())

			_, statErr := os.Stat(filepath.Join(tmpDir, "documents", name))
			Expect(statErr).NotTo(HaveOccurred())
		})

		It("should name a PDF document with a pdf extension", func() {
			name, err := storage.Save("abc_document", []byte("%PDF-1.7 fake"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("abc_document.pdf"))
		})

		It("should fall back to a bin extension for unrecognized bytes", func() {
			name, err := storage.Save("abc_document", []byte("data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("abc_document.bin"))
		})

		It("should keep an extension the caller already chose", func() {
			name, err := storage.Save("abc_document.pdf", []byte("data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("abc_document.pdf"))
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			var name string

			BeforeEach(func() {
				var err error
				name, err = storage.Save("abc_document", []byte("data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return its contents", func() {
				data, err := storage.Get(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("data")))
			})
		})

		When("the file does not exist", func() {
			It("returns an error", func() {
				_, err := storage.Get("missing")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		var name string

		BeforeEach(func() {
			var err error
			name, err = storage.Save("abc_document", []byte("data"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should remove the file", func() {
			Expect(storage.Delete(name)).To(Succeed())
			_, err := storage.Get(name)
			Expect(err).To(HaveOccurred())
		})
	})
})
