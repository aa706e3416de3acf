package models

// UserProfile is the identity record kept in the users collection, keyed by
// the Firebase Auth UID. This core only reads it, except for the upsert
// performed right after login to keep email lookup working.
type UserProfile struct {
	ID          string `json:"id" firestore:"-"` // Firebase Auth UID, the document ID
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
}
