package domain

type Album struct {
	ID    string `bson:"-" json:"_id"`
	Title string `bson:"title" json:"title"`
	Band  string `bson:"band" json:"band"`
	Genre string `bson:"genre" json:"genre"`
	Year  int    `bson:"year" json:"year"`
}

// AlbumFields is the client-writable part of an album.
type AlbumFields struct {
	Title string
	Band  string
	Genre string
	Year  int
}

func NewAlbum(f AlbumFields) *Album {
	a := &Album{}
	a.Apply(f)
	return a
}

// Apply overwrites all four fields, even when they are unchanged.
func (a *Album) Apply(f AlbumFields) {
	a.Title = f.Title
	a.Band = f.Band
	a.Genre = f.Genre
	a.Year = f.Year
}

func (a *Album) Fields() AlbumFields {
	return AlbumFields{Title: a.Title, Band: a.Band, Genre: a.Genre, Year: a.Year}
}

// Validate enforces the required-field rules of the albums collection.
func (a *Album) Validate() error {
	switch {
	case a.Title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case a.Band == "":
		return &ValidationError{Field: "band", Reason: "is required"}
	case a.Genre == "":
		return &ValidationError{Field: "genre", Reason: "is required"}
	}
	return nil
}
