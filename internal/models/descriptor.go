package models

// Descriptor type tags understood by the OCR service.
const (
	DescriptorTypeDocumentURL = "document_url"
	DescriptorTypeImageURL    = "image_url"
)

// DocumentDescriptor is the tagged payload the OCR service accepts: a base64
// data URI carried either as document_url (PDF) or image_url (raster image).
// The tag must match the uploaded file's declared type.
type DocumentDescriptor struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// PDFDescriptor builds a document_url descriptor from a PDF data URI.
func PDFDescriptor(dataURI string) DocumentDescriptor {
	return DocumentDescriptor{Type: DescriptorTypeDocumentURL, DocumentURL: dataURI}
}

// ImageDescriptor builds an image_url descriptor from an image data URI.
func ImageDescriptor(dataURI string) DocumentDescriptor {
	return DocumentDescriptor{Type: DescriptorTypeImageURL, ImageURL: dataURI}
}
