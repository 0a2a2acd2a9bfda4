package domain

// KeyPrefix namespaces every key written to the key-value backend.
const KeyPrefix = "newsvec:"
