package analyzer

import "strings"

func hasUsableAlt(img ImageElement) bool {
	return strings.TrimSpace(img.Alt) != ""
}

// analyzeImages splits images by whether they carry usable alt text
func analyzeImages(s *PageSnapshot) ImageAnalysis {
	images := ImageAnalysis{
		ImagesWithAlt:    []ImageEntry{},
		ImagesWithoutAlt: []ImageEntry{},
	}

	for _, img := range s.Images {
		if hasUsableAlt(img) {
			images.ImagesWithAlt = append(images.ImagesWithAlt, ImageEntry{Src: img.Src, Alt: img.Alt})
		} else {
			images.ImagesWithoutAlt = append(images.ImagesWithoutAlt, ImageEntry{Src: img.Src})
		}
	}

	return images
}

func (s *PageSnapshot) imagesWithoutAlt() int {
	count := 0
	for _, img := range s.Images {
		if !hasUsableAlt(img) {
			count++
		}
	}
	return count
}
