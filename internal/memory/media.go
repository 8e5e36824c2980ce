// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"path"
	"strings"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
}

// MediaType returns the item type for a media filename, or "" when the
// file is not media
func MediaType(name string) ItemType {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case ImageExtensions[ext]:
		return ItemPhoto
	case VideoExtensions[ext]:
		return ItemVideo
	case AudioExtensions[ext]:
		return ItemAudio
	}
	return ""
}

// IsMediaFile reports whether name is a supported media file
func IsMediaFile(name string) bool {
	return !isHidden(name) && MediaType(name) != ""
}

// IsReserved reports whether name is one of the library's own files
func IsReserved(name string) bool {
	switch strings.ToLower(name) {
	case YearDescriptor, EventDescriptor, LayoutSidecar:
		return true
	}
	return false
}

// IsMetadataFile reports whether name is an item metadata file
func IsMetadataFile(name string) bool {
	if isHidden(name) || IsReserved(name) {
		return false
	}
	return strings.EqualFold(path.Ext(name), MetadataExt)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
