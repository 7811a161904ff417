package gdrive

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
	google "google.golang.org/api/drive/v3"
)

// packageName is the text for debug logging
const packageName = "gdrive"

// interface check: interf.Service
var _ interf.Service = (*_GService)(nil)

// _GService the central interface to access the Google Drive storage.
// Must be created with NewGService().
type _GService struct {
	google         *google.Service
	parent         string
	readerCache    interf.Cache
	debugLvl       uint8
	mux            *sync.RWMutex
	files          interf.Files
	initialized    bool
	startPageToken string
}

// NewGService returns an interface to Google Drive. The parent specifies the folder
// with the active files. If the value is "root" or empty, the root directory of Google Drive is used.
// readerCache=nil disable the cache for Open()
// debugLvl (@see impl.DebugHigh and impl.DebugOff)
func NewGService(parent string, oauth *google.Service, readerCache interf.Cache, debugLvl uint8) interf.Service {
	s := &_GService{
		google:         oauth,
		parent:         parent,
		readerCache:    readerCache,
		debugLvl:       debugLvl,
		mux:            new(sync.RWMutex),
		files:          impl.NewFiles(nil), // empty list, set by Update()
		initialized:    false,
		startPageToken: "",
	}

	// root fix: replace root alias with valid folder id
	if s.parent == "root" || s.parent == "" {
		root, err := s.google.Files.Get("root").Do()
		if err != nil {
			// do nothing
			log.Printf("ERROR: %s/rootFix: %v", packageName, err)
		} else {
			// update parent folder id
			log.Printf("INFO: %s/rootFix: change parent folder id '%s' to '%s'", packageName, s.parent, root.Id)
			s.parent = root.Id
		}
	}
	return s
}

//--------------------------------------------------------------------------------------------------------------------//

// Update is the implementation of Service.Update()
//
// Update the internal file index, which can be accessed with Files().
// Only files in the configured root directory (see parentFolderId) are processed.
// Folders and sub-folders are ignored. This method is very slow on the first call!
// This method is thread-safe.
func (s *_GService) Update() error {
	s.mux.RLock() // READ Lock
	bl := s.initialized
	s.mux.RUnlock()

	if bl {
		return s.updateFiles() // thread safe
	} else {
		return s.initFiles() // thread safe
	}
}

// Files is the implementation of Service.Files()
//
// Files returns all available files.
// This method is offline and does not trigger a connection to (google) drive.
// The internal file index must be updated separately with Update().
// This method is thread-safe.
func (s *_GService) Files() interf.Files {
	s.mux.RLock() // READ Lock
	defer s.mux.RUnlock()

	return s.files
}

// Save is the implementation of Service.Save()
// The Google API does not set the value 'size'!
//
// Save reads bytes from the io.Reader r and saves them in (google) drive.
// The file name can exist multiple times and existing files with the same name are not overwritten.
// max limits the number of bytes to be read (see io.LimitedReader). max=0 means read until EOF.
// Return the new file id of the saved file (if successful).
// Don't forget to call Update().
// This method is thread-safe.
func (s *_GService) Save(name string, r io.Reader, max int64) (file interf.File, err error) {
	name = strings.TrimSpace(name)
	if name == "" || r == nil {
		return nil, errors.New("invalid input")
	}

	// set google file metadata
	f := &google.File{
		Name:     name,
		Parents:  []string{s.parent},
		MimeType: "application/octet-stream",
	}

	// upload
	if max > 0 {
		r = io.LimitReader(r, max)
	}
	f, err = s.google.Files.Create(f).Media(r).Do()

	// request error
	if err != nil {
		errMsg := fmt.Sprintf("%v", err)
		if strings.Contains(errMsg, "insufficientPermissions") {
			// wrong permissions
			return nil, fmt.Errorf("upload error: wrong permissions: create a new oauth token with write permissions: %v", err)
		} else {
			// other error
			return nil, fmt.Errorf("upload error: %v", err)
		}
	}

	// success
	// The Google API does not set the value 'size'!
	return impl.NewFile(f.Id, f.Name, time.Now().Unix(), f.Size), nil
}

// Trash is the implementation of Service.Trash()
//
// Trash moves a file (identified via the file id) to the trash.
// Don't forget to call Update().
// This method is thread-safe.
func (s *_GService) Trash(file interf.File) error {
	id := ""
	if file != nil {
		id = file.Id()
	}

	_, err := s.google.Files.Update(id, &google.File{Trashed: true}).Do() // thread safe
	return err
}

// Reader is the implementation of Service.Reader()
// Delegate to LimitedReader with n=interf.MaxFileSize
func (s *_GService) Reader(file interf.File, off int64) (io.ReadCloser, error) {
	return s.LimitedReader(file, off, interf.MaxFileSize)
}

// LimitedReader is the implementation of Service.LimitedReader()
//
// Reader enables read access to a file identified by the file id.
// The connection must be closed manually with Close() after use.
// This method is thread-safe.
func (s *_GService) LimitedReader(file interf.File, off int64, n int64) (io.ReadCloser, error) {
	if n < 1 {
		// n = 0 -> no data requested -> return nothing
		return io.NopCloser(strings.NewReader("")), nil
	}

	id := ""
	if file != nil {
		id = file.Id()
	}

	get := s.google.Files.Get(id)
	get.Header().Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+n-1))

	resp, err := get.Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Open is the implementation of Service.Open()
// Drive only offers sequential downloads, so the handle is a stream fetcher.
func (s *_GService) Open(file interf.File) (interf.RangeFetcher, error) {
	return impl.NewStreamFetcher(file, s, s.readerCache, s.debugLvl)
}

// Cache returns the internal cache instance. Can be NIL.
func (s *_GService) Cache() interf.Cache {
	return s.readerCache
}

//---------  Helper  -------------------------------------------------------------------------------------------------//

// initFiles builds the internal file index with all FILES from the defined folder (parent folder id).
// Folders and files from sub folders are ignored. This method can be VERY SLOW, but must be called
// at least once when the program starts! After that you should work with updateFiles().
func (s *_GService) initFiles() error {

	// config
	const folderMimeType = "application/vnd.google-apps.folder"
	const fields = "nextPageToken, files(id, name, size, modifiedTime)"
	const spaces = "drive" // Supported values are 'drive', 'appDataFolder' and 'photos'.
	const corpora = "user" // The user corpus includes all files in "My Drive" and "Shared with me"
	const pageSize = 1000  // split big file lists in pages (default 1000)
	query := fmt.Sprintf("trashed = false and mimeType != '%s' and '%s' in parents", folderMimeType, s.parent)

	// get a new StartPageToken to watch changes
	startPageTokenObj, err := s.google.Changes.GetStartPageToken().Do() // thread safe
	if err != nil {
		log.Printf("ERROR: %s/initFiles: can't get StartPageToken: %v", packageName, err)
		return err
	}
	s.mux.Lock() // <-------------- LOCK
	s.startPageToken = startPageTokenObj.StartPageToken
	s.mux.Unlock() // <------------ UNLOCK

	// get all relevant files
	newList := make(map[string]interf.File)
	pageToken := ""
	for {
		// read a result page
		fileList, err := s.google.Files.List().Q(query).PageToken(pageToken).
			Spaces(spaces).Corpora(corpora).PageSize(int64(pageSize)).
			Fields(fields).Do() // thread safe

		// error handling
		if err != nil {
			log.Printf("ERROR: %s/initFiles: can't read all result pages: %v", packageName, err)
			return err
		}

		// add all results (files) to list
		for _, f := range fileList.Files {
			newList[f.Id] = impl.NewFile(f.Id, f.Name, ParseTime(f.ModifiedTime), f.Size)
		}

		// break loop (no more pages)
		pageToken = fileList.NextPageToken
		if pageToken == "" {
			log.Printf("INFO: %s/initFiles: successful files initialization (%d files)", packageName, len(newList))
			break
		}
	}

	// FIN: set new list and return
	s.mux.Lock() // <-------------- LOCK
	defer s.mux.Unlock()

	s.files = impl.NewFiles(newList)
	s.initialized = true
	return nil
}

//--------------------------------------------------------------------------------------------------------------------//

// updateFiles only queries a delta of the internal file list of google drive.
// This makes the function much faster than initFiles().
func (s *_GService) updateFiles() error {

	// check startPageToken
	s.mux.RLock() // <-------------- R LOCK
	pageToken := s.startPageToken
	s.mux.RUnlock() // <------------ R UNLOCK

	if pageToken == "" {
		// invalid startPageToken
		s.mux.Lock() // <-------------- LOCK
		s.initialized = false
		s.mux.Unlock() // <------------ UNLOCK
		// return error
		msg := "can't use fast updateFiles() without StartPageToken, please call initFiles()"
		log.Printf("ERROR: %s/updateFiles: %s", packageName, msg)
		return errors.New(msg)
	}

	// config
	const folderMimeType = "application/vnd.google-apps.folder"
	const fields = "nextPageToken, newStartPageToken, changes(file(id, name, size, trashed, mimeType, parents, modifiedTime))"
	const spaces = "drive" // Supported values are 'drive', 'appDataFolder' and 'photos'.
	const pageSize = 1000  // split big file lists in pages (default 1000)

	fileList := make(map[string]interf.File)
	for _, v := range s.Files().All() { // thread safe
		fileList[v.Id()] = v
	}

	// loop to get all changes
	for {
		// read a result pages
		changeList, err := s.google.Changes.List(pageToken).Spaces(spaces).PageSize(int64(pageSize)).Fields(fields).Do() // thread safe
		if err != nil {
			log.Printf("ERROR: %s/updateFiles: can't read all result pages: %v", packageName, err)
			return err
		}

		// update fileList
		for _, change := range changeList.Changes {
			// object on changeList is a file
			if change.File.MimeType != folderMimeType {
				// file is in the watched folder
				for _, fileParent := range change.File.Parents {
					if fileParent == s.parent { // s.parent is thread safe (no write access)
						// add/update or remove?
						if change.File.Trashed {
							// the change is: remove
							delete(fileList, change.File.Id)
						} else {
							// the change is: update or new file
							cf := change.File
							fileList[cf.Id] = impl.NewFile(cf.Id, cf.Name, ParseTime(cf.ModifiedTime), cf.Size)
						}
					}
				}
			}
		}

		// break loop (no more pages)
		pageToken = changeList.NextPageToken // NextPageToken for the next page
		if pageToken == "" {
			// no more pages
			// set the new NewStartPageToken for the next updateFiles() call
			pageToken = changeList.NewStartPageToken
			log.Printf("INFO: %s/updateFiles: successful file update (%d files)", packageName, len(fileList))
			break
		}
	}

	//-----  THREAD SAFE  ----------------------------------------------------------------------
	s.mux.Lock() // LOCK
	defer s.mux.Unlock()

	s.startPageToken = pageToken
	s.files = impl.NewFiles(fileList)
	return nil
}
